package engine

import "fmt"

// The two decks are fixed tables. Only the shuffled walk order and the
// cursor live in the document; exhausting a deck reshuffles atomically with
// the draw that needed it.

var opportunityDeck = []Card{
	{Text: "Development grant approved. Collect 150.", Action: CardCredit, Amount: 150},
	{Text: "Bank error in your favour. Collect 200.", Action: CardCredit, Amount: 200},
	{Text: "Speculative venture pays off. Collect 100.", Action: CardCredit, Amount: 100},
	{Text: "Pay a zoning consultation fee of 50.", Action: CardDebit, Amount: 50},
	{Text: "Late filing charge. Pay 100.", Action: CardDebit, Amount: 100},
	{Text: "Building inspection: pay 25 per tenancy and 100 per permanent residence.", Action: CardInspection, Amount: 25},
	{Text: "Advance to the nearest payout office.", Action: CardAdvanceToPayout},
	{Text: "Tax fraud uncovered. Go directly to detention.", Action: CardGoToDetention},
	{Text: "Your solicitor owes you a favour. Keep this legal aid card.", Action: CardGrantLegalAid},
	{Text: "Hostile takeover papers. Keep this steal card.", Action: CardGrantSteal},
	{Text: "Housing voucher issued: 25% off your next purchase.", Action: CardGrantVoucher},
	{Text: "It is your grand opening. Collect 20 from every player.", Action: CardCollectFromEach, Amount: 20},
}

var welfareDeck = []Card{
	{Text: "Community fund payout. Collect 100.", Action: CardCredit, Amount: 100},
	{Text: "Tax rebate. Collect 50.", Action: CardCredit, Amount: 50},
	{Text: "Insurance matures. Collect 120.", Action: CardCredit, Amount: 120},
	{Text: "Hospital bill. Pay 100.", Action: CardDebit, Amount: 100},
	{Text: "School levy. Pay 50.", Action: CardDebit, Amount: 50},
	{Text: "Safety audit: pay 40 per tenancy and 160 per permanent residence.", Action: CardInspection, Amount: 40},
	{Text: "Advance to the nearest payout office.", Action: CardAdvanceToPayout},
	{Text: "Caught skipping the housing queue. Go directly to detention.", Action: CardGoToDetention},
	{Text: "Pro bono counsel. Keep this legal aid card.", Action: CardGrantLegalAid},
	{Text: "Eviction order signed. Keep this steal card.", Action: CardGrantSteal},
	{Text: "Relief voucher issued: 25% off your next purchase.", Action: CardGrantVoucher},
	{Text: "It is your birthday. Collect 10 from every player.", Action: CardCollectFromEach, Amount: 10},
}

// drawCard walks the deck cursor and publishes the draw for every client.
// Applying the effect is a separate, authorized action (ResolveCardDraw).
func (d *GameDocument) drawCard(deck DeckName, p *PlayerState) {
	var table []Card
	var order *[]int
	var cursor *int
	switch deck {
	case DeckOpportunity:
		table, order, cursor = opportunityDeck, &d.OpportunityOrder, &d.OpportunityCursor
	case DeckWelfare:
		table, order, cursor = welfareDeck, &d.WelfareOrder, &d.WelfareCursor
	default:
		return
	}
	if *cursor >= len(*order) {
		*order = d.shuffledOrder(len(table))
		*cursor = 0
	}
	card := table[(*order)[*cursor]]
	*cursor++

	d.CurrentCardDraw = &CardDraw{
		Deck:     deck,
		Text:     card.Text,
		Action:   card.Action,
		Amount:   card.Amount,
		PlayerID: p.ID,
		Token:    d.newToken(),
	}
	d.LastActionMessage = fmt.Sprintf("%s drew a card: %s", p.Name, card.Text)
}

// ResolveCardDraw applies the pending card draw for its drawing player and
// clears the field. Every client sees the draw; only the drawer (or the
// host on an automated drawer's behalf) invokes this.
func (d *GameDocument) ResolveCardDraw(playerID string) error {
	if d.Status == StatusFinished {
		return ErrGameFinished
	}
	if d.CurrentCardDraw == nil || d.CurrentCardDraw.PlayerID != playerID {
		return ErrNoCardDraw
	}
	p, err := d.Player(playerID)
	if err != nil {
		return err
	}
	d.applyCardDraw(p)
	return nil
}

// applyCardDraw executes the drawn card's effect and clears the draw.
func (d *GameDocument) applyCardDraw(p *PlayerState) {
	draw := d.CurrentCardDraw
	d.CurrentCardDraw = nil
	if draw == nil || p.IsBankrupt {
		return
	}

	switch draw.Action {
	case CardCredit:
		d.creditFromGov(p, draw.Amount)

	case CardDebit:
		d.payToGov(p, draw.Amount)

	case CardInspection:
		// The fee scales with development: one unit per tenancy, four per
		// permanent residence.
		fee := 0
		for _, id := range p.Properties {
			if prop, err := d.Property(id); err == nil {
				fee += draw.Amount * prop.Tenancies
				if prop.PermanentResidence {
					fee += draw.Amount * 4
				}
			}
		}
		if fee > 0 {
			paid := d.payToGov(p, fee)
			d.LastActionMessage = fmt.Sprintf("%s paid %d in inspection fees", p.Name, paid)
		}

	case CardAdvanceToPayout:
		d.advanceToNearestPayout(p)

	case CardGoToDetention:
		d.sendToDetention(p)
		d.TurnPhase = TurnAwaitingEnd
		d.LastActionMessage = fmt.Sprintf("%s was sent straight to detention", p.Name)

	case CardGrantLegalAid:
		p.GetOutOfDetentionCards++

	case CardGrantSteal:
		p.StealCards++

	case CardGrantVoucher:
		p.HasHousingVoucher = true

	case CardCollectFromEach:
		collected := 0
		for _, id := range d.PlayerOrder {
			other := d.Players[id]
			if other == nil || other.ID == p.ID || other.IsBankrupt {
				continue
			}
			collected += d.payToPlayer(other, p, draw.Amount)
		}
		d.LastActionMessage = fmt.Sprintf("%s collected %d from the other players", p.Name, collected)
	}
}

// advanceToNearestPayout walks the piece forward to the next payout space,
// crediting the pass-start bonus if the walk wraps, then applies the payout.
func (d *GameDocument) advanceToNearestPayout(p *PlayerState) {
	for step := 1; step <= BoardSize; step++ {
		pos := (p.Position + step) % BoardSize
		if d.BoardLayout[pos].Type == SpacePayout {
			if p.Position+step >= BoardSize {
				d.creditFromGov(p, PassStartBonus)
			}
			p.Position = pos
			space := d.Space(pos)
			d.creditFromGov(p, space.Amount)
			d.LastActionMessage = fmt.Sprintf("%s advanced to %s and collected %d", p.Name, space.Name, space.Amount)
			return
		}
	}
}
