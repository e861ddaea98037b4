package engine

import "fmt"

// RollOutcome summarizes a resolved roll for callers that log or schedule
// follow-up actions (the AI host re-enters on RollAgain).
type RollOutcome struct {
	Roll        *DiceRoll
	Landed      int
	PassedStart bool
	SentToJail  bool
	RentDue     bool
	RollAgain   bool
}

// Roll resolves one dice roll for the current player: movement, landing
// effects, and turn-phase bookkeeping.
func (d *GameDocument) Roll(playerID string) (*RollOutcome, error) {
	p, err := d.requireTurn(playerID)
	if err != nil {
		return nil, err
	}
	if p.InDetention {
		return nil, fmt.Errorf("%w: use a detention option instead", ErrInDetention)
	}
	if d.TurnPhase != TurnAwaitingRoll {
		return nil, fmt.Errorf("%w: roll already taken this segment", ErrWrongTurnPhase)
	}
	// A double re-opens the roll phase before the previous landing is paid
	// for. Rolling again would overwrite the debt, so the player settles
	// first.
	if d.PendingRent != nil && d.PendingRent.PayerID == playerID {
		return nil, fmt.Errorf("%w: settle the rent before rolling again", ErrObligationPending)
	}
	if d.CurrentCardDraw != nil && d.CurrentCardDraw.PlayerID == playerID {
		return nil, fmt.Errorf("%w: resolve the drawn card before rolling again", ErrObligationPending)
	}

	d1, d2 := d.rollDie(), d.rollDie()
	roll := &DiceRoll{
		Die1: d1, Die2: d2, Total: d1 + d2,
		IsDouble: d1 == d2, PlayerID: playerID, Token: d.newToken(),
	}
	d.LastDiceRoll = roll
	out := &RollOutcome{Roll: roll}

	if roll.IsDouble {
		d.DoublesRolledInTurn++
	} else {
		d.DoublesRolledInTurn = 0
	}

	// Third consecutive double: straight to detention, no movement, no
	// landing effects, turn over.
	if d.DoublesRolledInTurn >= 3 {
		d.sendToDetention(p)
		d.TurnPhase = TurnAwaitingEnd
		d.LastActionMessage = fmt.Sprintf("%s rolled three doubles and was sent to detention", p.Name)
		out.SentToJail = true
		return out, nil
	}

	d.movePlayer(p, roll.Total, out)
	d.applyLanding(p, out)

	if p.InDetention {
		// Landing on the detention-entry space ends movement for the turn
		// regardless of the double.
		d.TurnPhase = TurnAwaitingEnd
	} else if roll.IsDouble {
		// A non-third double grants another roll before the turn can end.
		d.TurnPhase = TurnAwaitingRoll
		out.RollAgain = true
	} else {
		d.TurnPhase = TurnAwaitingEnd
	}
	return out, nil
}

// requireTurn validates the common roll/buy/develop preconditions: active
// game, main phase, and the acting player being current and solvent.
func (d *GameDocument) requireTurn(playerID string) (*PlayerState, error) {
	if d.Status == StatusFinished {
		return nil, ErrGameFinished
	}
	if d.Status != StatusActive || d.GamePhase != PhaseMain {
		return nil, ErrWrongPhase
	}
	p, err := d.Player(playerID)
	if err != nil {
		return nil, err
	}
	if p.IsBankrupt {
		return nil, ErrPlayerBankrupt
	}
	if d.CurrentPlayerID() != playerID {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// movePlayer advances the piece, crediting the pass-start bonus out of the
// government pool when the position wraps past Start.
func (d *GameDocument) movePlayer(p *PlayerState, total int, out *RollOutcome) {
	next := p.Position + total
	if next >= BoardSize {
		d.creditFromGov(p, PassStartBonus)
		out.PassedStart = true
	}
	p.Position = next % BoardSize
	out.Landed = p.Position
}

// applyLanding resolves the effect of the space the player stopped on.
func (d *GameDocument) applyLanding(p *PlayerState, out *RollOutcome) {
	space := d.Space(p.Position)
	switch space.Type {
	case SpacePayout:
		d.creditFromGov(p, space.Amount)
		d.LastActionMessage = fmt.Sprintf("%s collected %d from %s", p.Name, space.Amount, space.Name)

	case SpaceTax:
		paid := d.payToGov(p, space.Amount)
		d.LastActionMessage = fmt.Sprintf("%s paid %d in %s", p.Name, paid, space.Name)

	case SpacePenalty:
		paid := d.payToGov(p, space.Amount)
		d.LastActionMessage = fmt.Sprintf("%s paid a %d penalty at %s", p.Name, paid, space.Name)

	case SpaceDetention:
		d.sendToDetention(p)
		out.SentToJail = true
		d.LastActionMessage = fmt.Sprintf("%s was sent to detention", p.Name)

	case SpaceOpportunity:
		d.drawCard(DeckOpportunity, p)

	case SpaceWelfare:
		d.drawCard(DeckWelfare, p)

	case SpaceStreet, SpaceFlat:
		owner := d.OwnerOf(space.ID)
		if owner != nil && owner.ID != p.ID && !owner.InDetention {
			// Rent is settled in its own transaction; here the move only
			// records that it is due.
			d.PendingRent = &RentDue{PayerID: p.ID, PropertyID: space.ID}
			out.RentDue = true
			d.LastActionMessage = fmt.Sprintf("%s landed on %s and owes rent to %s", p.Name, space.Name, owner.Name)
		} else if owner == nil {
			d.LastActionMessage = fmt.Sprintf("%s landed on %s, available for %d", p.Name, space.Name, space.Price)
		} else {
			d.LastActionMessage = fmt.Sprintf("%s landed on %s", p.Name, space.Name)
		}

	default:
		d.LastActionMessage = fmt.Sprintf("%s landed on %s", p.Name, space.Name)
	}
}

// sendToDetention halts the piece at the detention space and opens a fresh
// stay: the one-roll-per-stay gate and missed-turn counter both reset.
func (d *GameDocument) sendToDetention(p *PlayerState) {
	p.Position = VisitingPosition
	p.InDetention = true
	p.MissedTurnsInDetention = 0
	p.AttemptedDetentionRollThisStay = false
}
