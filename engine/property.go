package engine

import "fmt"

// DevelopmentKind selects which development step to buy.
type DevelopmentKind string

const (
	DevelopAddTenancy         DevelopmentKind = "add-tenancy"
	DevelopPermanentResidence DevelopmentKind = "build-permanent-residence"
)

// BuyProperty purchases the space the player is standing on. Legal once the
// player has rolled this turn, while the space is unowned (or its recorded
// owner has gone bankrupt). A held housing voucher discounts the price by a
// quarter and is consumed. Purchases into an auto-consolidating group may
// divert or capture ownership (see consolidate).
func (d *GameDocument) BuyProperty(playerID string) error {
	p, err := d.requireTurn(playerID)
	if err != nil {
		return err
	}
	if d.LastDiceRoll == nil || d.LastDiceRoll.PlayerID != playerID {
		return fmt.Errorf("%w: roll before buying", ErrWrongTurnPhase)
	}
	space := d.Space(p.Position)
	if !space.Ownable() {
		return ErrNotOwnable
	}
	prop, err := d.Property(space.ID)
	if err != nil {
		return err
	}
	if prev := d.Players[prop.Owner]; prop.Owner != "" {
		if prev == nil || !prev.IsBankrupt {
			return ErrAlreadyOwned
		}
		// Stale ownership from a bankruptcy that predates this read.
		prev.removeProperty(prop.ID)
		prop.Owner = ""
	}

	price := space.Price
	usedVoucher := false
	if p.HasHousingVoucher {
		price -= space.Price / VoucherDiscountQuarter
		usedVoucher = true
	}
	if p.Money < price {
		return fmt.Errorf("%w: %s costs %d", ErrInsufficientFunds, space.Name, price)
	}
	d.payToBank(p, price)
	if usedVoucher {
		p.HasHousingVoucher = false
	}

	d.assignPurchase(p, prop, space)
	return nil
}

// assignPurchase gives the bought property to its final owner, applying the
// special-set collapse rules for auto-consolidating groups:
//
//   - if another player already owns exactly two of the group, the purchase
//     transfers to them instead of the buyer (the set collapses to them);
//   - otherwise the buyer takes it, and if that brings the buyer to exactly
//     two while the remaining member belongs to a third party, that member
//     is captured in the same commit.
//
// When several third parties hold two each, the first such owner in board
// order wins the transfer.
func (d *GameDocument) assignPurchase(buyer *PlayerState, prop *PropertyState, space *BoardSpace) {
	if IsAutoConsolidating(space.Group) {
		if other := d.twoOfGroupOwner(space.Group, buyer.ID); other != nil {
			prop.Owner = other.ID
			other.addProperty(prop.ID)
			d.FlashingProperties = append([]int(nil), d.GroupMembers(space.Group)...)
			d.LastActionMessage = fmt.Sprintf("%s bought %s but the set collapsed to %s", buyer.Name, space.Name, other.Name)
			return
		}
	}

	prop.Owner = buyer.ID
	buyer.addProperty(prop.ID)
	d.LastActionMessage = fmt.Sprintf("%s bought %s for %d", buyer.Name, space.Name, space.Price)

	if IsAutoConsolidating(space.Group) && d.OwnsCountInGroup(buyer.ID, space.Group) == 2 {
		d.captureRemaining(buyer, space.Group)
	}
}

// twoOfGroupOwner returns the first player in board order, other than
// exclude, who owns exactly two members of the group. Bankrupt owners never
// qualify.
func (d *GameDocument) twoOfGroupOwner(group, exclude string) *PlayerState {
	for _, id := range d.GroupMembers(group) {
		prop, err := d.Property(id)
		if err != nil || prop.Owner == "" || prop.Owner == exclude {
			continue
		}
		owner := d.Players[prop.Owner]
		if owner == nil || owner.IsBankrupt {
			continue
		}
		if d.OwnsCountInGroup(owner.ID, group) == 2 {
			return owner
		}
	}
	return nil
}

// captureRemaining transfers the last third-party-owned member of the group
// to the buyer who just reached two.
func (d *GameDocument) captureRemaining(buyer *PlayerState, group string) {
	for _, id := range d.GroupMembers(group) {
		prop, err := d.Property(id)
		if err != nil || prop.Owner == "" || prop.Owner == buyer.ID {
			continue
		}
		holder := d.Players[prop.Owner]
		if holder == nil || holder.IsBankrupt {
			continue
		}
		holder.removeProperty(prop.ID)
		prop.Owner = buyer.ID
		buyer.addProperty(prop.ID)
		d.FlashingProperties = append([]int(nil), d.GroupMembers(group)...)
		d.LastActionMessage = fmt.Sprintf("%s captured %s from %s", buyer.Name, d.Space(id).Name, holder.Name)
		return
	}
}

// DevelopProperty buys one development step on a street the player owns.
// Tenancies climb one per call to the cap; one further call converts the
// fully tenanted street to a permanent residence.
func (d *GameDocument) DevelopProperty(playerID string, propertyID int, kind DevelopmentKind) error {
	p, err := d.requireTurn(playerID)
	if err != nil {
		return err
	}
	prop, err := d.Property(propertyID)
	if err != nil {
		return err
	}
	if prop.Owner != playerID {
		return ErrNotOwner
	}
	space := d.Space(propertyID)
	if space.Type != SpaceStreet {
		return fmt.Errorf("%w: %s cannot be developed", ErrNotOwnable, space.Name)
	}
	if !d.OwnsFullGroup(playerID, space.Group) {
		return ErrIncompleteGroup
	}
	if prop.PermanentResidence {
		return ErrMaxDevelopment
	}

	switch kind {
	case DevelopAddTenancy:
		if prop.Tenancies >= MaxTenancies {
			return fmt.Errorf("%w: use %s instead", ErrMaxDevelopment, DevelopPermanentResidence)
		}
	case DevelopPermanentResidence:
		if prop.Tenancies < MaxTenancies {
			return fmt.Errorf("%s needs %d tenancies before a permanent residence", space.Name, MaxTenancies)
		}
	default:
		return fmt.Errorf("unknown development kind %q", kind)
	}

	if p.Money < space.DevCost {
		return fmt.Errorf("%w: development at %s costs %d", ErrInsufficientFunds, space.Name, space.DevCost)
	}
	d.payToBank(p, space.DevCost)

	if kind == DevelopAddTenancy {
		prop.Tenancies++
		d.LastActionMessage = fmt.Sprintf("%s added a tenancy at %s", p.Name, space.Name)
	} else {
		prop.PermanentResidence = true
		d.LastActionMessage = fmt.Sprintf("%s built a permanent residence at %s", p.Name, space.Name)
	}
	return nil
}
