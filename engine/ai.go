package engine

import "sort"

// Automated-player heuristics. These are pure ranking functions over the
// document; the scheduler in the service layer drives them through the same
// public transitions a human uses.

// DevelopmentChoice is one step of a development plan.
type DevelopmentChoice struct {
	PropertyID int
	Kind       DevelopmentKind
}

// MaxRentExposure returns the largest single rent any owned property on the
// board could currently charge. The AI keeps this much cash in reserve.
func (d *GameDocument) MaxRentExposure() int {
	max := 0
	for i := range d.PropertyData {
		prop := &d.PropertyData[i]
		if prop.Owner == "" {
			continue
		}
		if rent := d.RentOwed(prop.ID); rent > max {
			max = rent
		}
	}
	return max
}

// ShouldBuy decides whether an automated player buys the property at its
// current position. The required cash buffer shrinks when the player
// already holds part of the group and shrinks further when the purchase
// would complete the set.
func (d *GameDocument) ShouldBuy(playerID string, propertyID int) bool {
	p, err := d.Player(playerID)
	if err != nil || p.IsBankrupt {
		return false
	}
	space := d.Space(propertyID)
	if !space.Ownable() {
		return false
	}
	prop, err := d.Property(propertyID)
	if err != nil {
		return false
	}
	if d.OwnerOf(prop.ID) != nil {
		return false
	}

	price := space.Price
	if p.HasHousingVoucher {
		price -= space.Price / VoucherDiscountQuarter
	}

	buffer := d.MaxRentExposure()
	owned := d.OwnsCountInGroup(playerID, space.Group)
	members := len(d.GroupMembers(space.Group))
	switch {
	case owned == members-1:
		buffer /= 4 // completes the set
	case owned > 0:
		buffer /= 2
	}
	return p.Money-price >= buffer
}

// DevelopmentPlan returns the development steps an automated player should
// buy right now, ranked by return on investment (rent increase per unit of
// development cost), within a budget that reserves the board's highest
// rent exposure.
func (d *GameDocument) DevelopmentPlan(playerID string) []DevelopmentChoice {
	p, err := d.Player(playerID)
	if err != nil || p.IsBankrupt {
		return nil
	}

	type candidate struct {
		choice DevelopmentChoice
		cost   int
		roi    float64
	}
	var candidates []candidate
	for _, id := range p.Properties {
		prop, err := d.Property(id)
		if err != nil || prop.PermanentResidence {
			continue
		}
		space := d.Space(id)
		if space.Type != SpaceStreet || !d.OwnsFullGroup(playerID, space.Group) {
			continue
		}
		kind := DevelopAddTenancy
		current := d.RentOwed(id)
		var next int
		if prop.Tenancies >= MaxTenancies {
			kind = DevelopPermanentResidence
			next = space.Rent[MaxTenancies+1]
		} else {
			next = space.Rent[prop.Tenancies+1]
		}
		candidates = append(candidates, candidate{
			choice: DevelopmentChoice{PropertyID: id, Kind: kind},
			cost:   space.DevCost,
			roi:    float64(next-current) / float64(space.DevCost),
		})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].roi > candidates[b].roi
	})

	budget := p.Money - d.MaxRentExposure()
	var plan []DevelopmentChoice
	for _, c := range candidates {
		if budget < c.cost {
			continue
		}
		budget -= c.cost
		plan = append(plan, c.choice)
	}
	return plan
}

// ChooseDetentionOption picks the automated player's exit attempt for this
// turn, or "" when nothing is left but sitting the turn out.
func (d *GameDocument) ChooseDetentionOption(playerID string) DetentionOption {
	p, err := d.Player(playerID)
	if err != nil || !p.InDetention {
		return ""
	}
	if p.GetOutOfDetentionCards > 0 {
		return DetentionUseCard
	}
	if p.Money >= DetentionFine+d.MaxRentExposure() {
		return DetentionPayFine
	}
	if !p.AttemptedDetentionRollThisStay {
		return DetentionRoll
	}
	if p.Money >= DetentionFine {
		// Rotting in detention forfeits rent collection; pay up once the
		// roll attempt is spent.
		return DetentionPayFine
	}
	return ""
}
