package engine

import "fmt"

// RentOwed computes the rent a visitor owes at a property under its current
// owner and development:
//
//   - tiered streets charge the rent-table tier for the tenancy count, the
//     terminal tier once a permanent residence stands, and double the base
//     rate for an undeveloped street whose group is owned in full;
//   - flat-rent specials charge the per-unit amount times the owner's count
//     of same-group holdings. An owner of zero (mid-transfer) owes nothing,
//     which protects against double-charging while a transfer commits.
func (d *GameDocument) RentOwed(propertyID int) int {
	prop, err := d.Property(propertyID)
	if err != nil || prop.Owner == "" {
		return 0
	}
	space := d.Space(propertyID)
	switch space.Type {
	case SpaceFlat:
		return space.PerUnit * d.OwnsCountInGroup(prop.Owner, space.Group)
	case SpaceStreet:
		if prop.PermanentResidence {
			return space.Rent[MaxTenancies+1]
		}
		if prop.Tenancies == 0 && d.OwnsFullGroup(prop.Owner, space.Group) {
			return space.Rent[0] * 2
		}
		return space.Rent[prop.Tenancies]
	}
	return 0
}

// SettleRent pays the rent recorded as due for the given player. It runs as
// its own transaction, distinct from the move that created the debt, and
// re-validates against current ownership: rent is waived if the owner is
// now bankrupt-or-gone or sitting in detention, and redirected to the bank
// if the recorded owner went bankrupt between landing and settlement.
func (d *GameDocument) SettleRent(playerID string) (*RentEvent, error) {
	if d.Status == StatusFinished {
		return nil, ErrGameFinished
	}
	if d.PendingRent == nil || d.PendingRent.PayerID != playerID {
		return nil, ErrNoPendingRent
	}
	return d.settleRent(), nil
}

// settleRent resolves the pending debt. Clears PendingRent in every path.
func (d *GameDocument) settleRent() *RentEvent {
	due := d.PendingRent
	d.PendingRent = nil

	payer := d.Players[due.PayerID]
	if payer == nil || payer.IsBankrupt {
		return nil
	}
	prop, err := d.Property(due.PropertyID)
	if err != nil || prop.Owner == "" || prop.Owner == payer.ID {
		return nil
	}
	owner := d.Players[prop.Owner]
	if owner != nil && owner.InDetention {
		// An incarcerated owner cannot collect.
		d.LastActionMessage = fmt.Sprintf("rent at %s waived while %s is in detention", d.Space(due.PropertyID).Name, owner.Name)
		return nil
	}

	amount := d.RentOwed(due.PropertyID)
	if amount == 0 {
		return nil
	}

	var paid int
	if owner == nil || owner.IsBankrupt {
		paid = d.payToBank(payer, amount)
	} else {
		paid = d.payToPlayer(payer, owner, amount)
	}

	if payer.IsBankrupt {
		d.LastActionMessage = fmt.Sprintf("%s went bankrupt paying rent at %s", payer.Name, d.Space(due.PropertyID).Name)
		return nil
	}

	ownerID := ""
	ownerName := "the bank"
	if owner != nil && !owner.IsBankrupt {
		ownerID = owner.ID
		ownerName = owner.Name
	}
	ev := &RentEvent{
		PayerID:    payer.ID,
		OwnerID:    ownerID,
		PropertyID: due.PropertyID,
		Amount:     paid,
		Token:      d.newToken(),
	}
	d.LastRentEvent = ev
	d.LastActionMessage = fmt.Sprintf("%s paid %d rent to %s", payer.Name, paid, ownerName)
	return ev
}
