package engine

// HostLeaseMillis is the automation lease term. The acting host renews well
// inside it; a vanished host's lease simply runs out and any other client
// takes over.
const HostLeaseMillis = 15_000

// AcquireHostLease takes or renews the automation lease for holderID.
// Returns false while a different holder's unexpired lease stands.
func (d *GameDocument) AcquireHostLease(holderID string, now int64) bool {
	l := d.HostLease
	if l != nil && l.HolderID != holderID && now < l.ExpiresAt {
		return false
	}
	d.HostLease = &HostLease{HolderID: holderID, ExpiresAt: now + HostLeaseMillis}
	return true
}

// HoldsHostLease reports whether holderID's lease is current.
func (d *GameDocument) HoldsHostLease(holderID string, now int64) bool {
	l := d.HostLease
	return l != nil && l.HolderID == holderID && now < l.ExpiresAt
}

// ReleaseHostLease drops the lease if holderID holds it.
func (d *GameDocument) ReleaseHostLease(holderID string) {
	if d.HostLease != nil && d.HostLease.HolderID == holderID {
		d.HostLease = nil
	}
}
