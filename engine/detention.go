package engine

import "fmt"

// DetentionOption selects how an incarcerated player tries to get out.
type DetentionOption string

const (
	DetentionUseCard DetentionOption = "use-card"
	DetentionPayFine DetentionOption = "pay-fine"
	DetentionRoll    DetentionOption = "roll"
)

// DetentionOutcome reports how a detention option resolved.
type DetentionOutcome struct {
	Released bool
	Roll     *DiceRoll
}

// UseDetentionOption spends the current player's one exit attempt for this
// turn: a legal aid card or the fine releases immediately and leaves the
// normal roll available; the dice attempt (one per stay) releases on
// doubles with an extra roll, and otherwise consumes the attempt, counts a
// missed turn, and ends the turn without movement.
func (d *GameDocument) UseDetentionOption(playerID string, option DetentionOption) (*DetentionOutcome, error) {
	p, err := d.requireTurn(playerID)
	if err != nil {
		return nil, err
	}
	if !p.InDetention {
		return nil, ErrNotInDetention
	}
	if d.TurnPhase != TurnAwaitingRoll {
		return nil, fmt.Errorf("%w: detention already resolved this turn", ErrWrongTurnPhase)
	}

	switch option {
	case DetentionUseCard:
		if p.GetOutOfDetentionCards == 0 {
			return nil, ErrNoLegalAidCard
		}
		p.GetOutOfDetentionCards--
		d.release(p)
		d.LastActionMessage = fmt.Sprintf("%s used a legal aid card and walked free", p.Name)
		return &DetentionOutcome{Released: true}, nil

	case DetentionPayFine:
		if p.Money < DetentionFine {
			return nil, fmt.Errorf("%w: the fine is %d", ErrInsufficientFunds, DetentionFine)
		}
		d.payToGov(p, DetentionFine)
		d.release(p)
		d.LastActionMessage = fmt.Sprintf("%s paid the %d fine and walked free", p.Name, DetentionFine)
		return &DetentionOutcome{Released: true}, nil

	case DetentionRoll:
		if p.AttemptedDetentionRollThisStay {
			return nil, ErrDetentionRollUsed
		}
		d1, d2 := d.rollDie(), d.rollDie()
		roll := &DiceRoll{
			Die1: d1, Die2: d2, Total: d1 + d2,
			IsDouble: d1 == d2, PlayerID: playerID, Token: d.newToken(),
		}
		d.LastDiceRoll = roll
		if roll.IsDouble {
			d.release(p)
			d.LastActionMessage = fmt.Sprintf("%s rolled doubles and walked free", p.Name)
			return &DetentionOutcome{Released: true, Roll: roll}, nil
		}
		p.AttemptedDetentionRollThisStay = true
		p.MissedTurnsInDetention++
		d.TurnPhase = TurnAwaitingEnd
		d.LastActionMessage = fmt.Sprintf("%s failed to roll out of detention", p.Name)
		return &DetentionOutcome{Released: false, Roll: roll}, nil

	default:
		return nil, fmt.Errorf("unknown detention option %q", option)
	}
}

// release ends the stay: the missed-turn counter and the one-roll-per-stay
// gate reset with it.
func (d *GameDocument) release(p *PlayerState) {
	p.InDetention = false
	p.MissedTurnsInDetention = 0
	p.AttemptedDetentionRollThisStay = false
}
