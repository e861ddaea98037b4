package engine

import "fmt"

// SwapTimeoutMillis is how long an unresolved proposal survives before any
// observer may clear it.
const SwapTimeoutMillis = 10_000

// ProposeSwap advances the two-phase trade handshake. The handshake lives
// in the shared document because no side channel exists between clients.
//
// Phase 1: the initiator selects one of their own properties (CardA).
// Selecting a different own property moves CardA; re-selecting CardA
// cancels. Phase 2: the same initiator selects a property of a different,
// non-bankrupt player (CardB), which arms the proposal and flags both
// cards pending on every client.
func (d *GameDocument) ProposeSwap(playerID string, propertyID int, now int64) error {
	if d.Status != StatusActive || d.GamePhase != PhaseMain {
		return ErrWrongPhase
	}
	p, err := d.Player(playerID)
	if err != nil {
		return err
	}
	if p.IsBankrupt {
		return ErrPlayerBankrupt
	}
	prop, err := d.Property(propertyID)
	if err != nil {
		return err
	}

	return d.proposeSwapStep(p, prop, now)
}

func (d *GameDocument) proposeSwapStep(p *PlayerState, prop *PropertyState, now int64) error {
	sw := d.CurrentSwapProposal

	// No proposal yet: selecting an own property opens phase 1.
	if sw == nil {
		if prop.Owner != p.ID {
			return fmt.Errorf("%w: select one of your own properties first", ErrNotOwner)
		}
		d.CurrentSwapProposal = &SwapProposal{
			InitiatorID: p.ID,
			CardA:       prop.ID,
			CardB:       -1,
			CreatedAt:   now,
		}
		d.LastActionMessage = fmt.Sprintf("%s offers %s for trade", p.Name, d.Space(prop.ID).Name)
		return nil
	}

	if sw.SwapActive {
		return fmt.Errorf("%w: resolve or cancel it first", ErrProposalActive)
	}
	if sw.InitiatorID != p.ID {
		return fmt.Errorf("%w: another player's proposal is pending", ErrProposalActive)
	}

	// Touching the already-selected card cancels the half-open proposal.
	if prop.ID == sw.CardA {
		d.clearSwap()
		d.LastActionMessage = fmt.Sprintf("%s withdrew the trade offer", p.Name)
		return nil
	}

	// Selecting a different own property moves the offer.
	if prop.Owner == p.ID {
		sw.CardA = prop.ID
		sw.CreatedAt = now
		d.LastActionMessage = fmt.Sprintf("%s offers %s for trade", p.Name, d.Space(prop.ID).Name)
		return nil
	}

	// Phase 2: the counterpart card must belong to a live opponent.
	owner := d.OwnerOf(prop.ID)
	if owner == nil || owner.ID == p.ID {
		return fmt.Errorf("%w: pick a property owned by another player", ErrNotOwner)
	}
	sw.TargetID = owner.ID
	sw.CardB = prop.ID
	sw.SwapActive = true
	sw.CreatedAt = now
	d.FlashingProperties = []int{sw.CardA, sw.CardB}
	d.LastActionMessage = fmt.Sprintf("%s proposes trading %s for %s's %s",
		p.Name, d.Space(sw.CardA).Name, owner.Name, d.Space(sw.CardB).Name)
	return nil
}

// ResolveSwap settles an armed proposal. Either party may act: clicking the
// counterpart's flagged card confirms the exchange, clicking one's own
// flagged card cancels. Confirmation re-validates that both properties'
// owners still match the proposal; a stale proposal clears without any
// mutation of ownership.
func (d *GameDocument) ResolveSwap(playerID string, propertyID int) error {
	sw := d.CurrentSwapProposal
	if sw == nil || !sw.SwapActive {
		return ErrNoProposal
	}
	if playerID != sw.InitiatorID && playerID != sw.TargetID {
		return fmt.Errorf("%w: only the trading parties may resolve", ErrNotAuthorized)
	}
	if propertyID != sw.CardA && propertyID != sw.CardB {
		return fmt.Errorf("%w: property %d is not part of the proposal", ErrNoProposal, propertyID)
	}

	ownCard := (playerID == sw.InitiatorID && propertyID == sw.CardA) ||
		(playerID == sw.TargetID && propertyID == sw.CardB)
	if ownCard {
		d.clearSwap()
		d.LastActionMessage = "trade cancelled"
		return nil
	}

	propA, errA := d.Property(sw.CardA)
	propB, errB := d.Property(sw.CardB)
	initiator := d.Players[sw.InitiatorID]
	target := d.Players[sw.TargetID]
	if errA != nil || errB != nil ||
		initiator == nil || initiator.IsBankrupt ||
		target == nil || target.IsBankrupt ||
		propA.Owner != sw.InitiatorID || propB.Owner != sw.TargetID {
		// Ownership moved underneath the proposal; drop it without touching
		// either property.
		d.clearSwap()
		return ErrProposalStale
	}

	propA.Owner = target.ID
	propB.Owner = initiator.ID
	initiator.removeProperty(propA.ID)
	initiator.addProperty(propB.ID)
	target.removeProperty(propB.ID)
	target.addProperty(propA.ID)
	d.clearSwap()
	d.LastActionMessage = fmt.Sprintf("%s and %s traded %s for %s",
		initiator.Name, target.Name, d.Space(propA.ID).Name, d.Space(propB.ID).Name)
	return nil
}

// ExpireSwap clears a proposal whose timestamp has gone stale. Any client
// observing the document may call it; expiry never swaps anything.
func (d *GameDocument) ExpireSwap(now int64) bool {
	sw := d.CurrentSwapProposal
	if sw == nil || now-sw.CreatedAt < SwapTimeoutMillis {
		return false
	}
	d.clearSwap()
	d.LastActionMessage = "trade offer expired"
	return true
}

func (d *GameDocument) clearSwap() {
	d.CurrentSwapProposal = nil
	d.FlashingProperties = nil
}

// Steal consumes one steal card to transfer a single property from another
// player, no confirmation required. Illegal while any proposal is pending.
func (d *GameDocument) Steal(playerID string, propertyID int) error {
	if d.Status != StatusActive || d.GamePhase != PhaseMain {
		return ErrWrongPhase
	}
	if d.CurrentSwapProposal != nil {
		return ErrProposalActive
	}
	p, err := d.Player(playerID)
	if err != nil {
		return err
	}
	if p.IsBankrupt {
		return ErrPlayerBankrupt
	}
	if p.StealCards == 0 {
		return ErrNoStealCard
	}
	prop, err := d.Property(propertyID)
	if err != nil {
		return err
	}
	owner := d.OwnerOf(propertyID)
	if owner == nil || owner.ID == playerID {
		return fmt.Errorf("%w: nothing to steal at %s", ErrNotOwner, d.Space(propertyID).Name)
	}

	p.StealCards--
	owner.removeProperty(prop.ID)
	prop.Owner = p.ID
	p.addProperty(prop.ID)
	d.LastActionMessage = fmt.Sprintf("%s stole %s from %s", p.Name, d.Space(prop.ID).Name, owner.Name)
	return nil
}
