package engine

import "fmt"

// EndTurn completes the acting player's turn and hands play to the next
// non-bankrupt player. A bankrupt current player may (and must) end
// immediately; everyone else needs their roll segment finished first.
//
// Outstanding obligations created by the final roll (unsettled rent, an
// unresolved card draw) are settled here rather than dropped, so a forced
// end-turn (the scheduler's fault fallback) can never strand a debt.
func (d *GameDocument) EndTurn(playerID string) error {
	if d.Status == StatusFinished {
		return ErrGameFinished
	}
	if d.Status != StatusActive || d.GamePhase != PhaseMain {
		return ErrWrongPhase
	}
	p, err := d.Player(playerID)
	if err != nil {
		return err
	}
	if d.CurrentPlayerID() != playerID {
		return ErrNotYourTurn
	}
	if !p.IsBankrupt && d.TurnPhase != TurnAwaitingEnd {
		if !p.InDetention {
			return fmt.Errorf("%w: roll before ending the turn", ErrWrongTurnPhase)
		}
		// A detained player with no exit left just sits the turn out.
		p.MissedTurnsInDetention++
	}

	if d.PendingRent != nil && d.PendingRent.PayerID == playerID {
		// settleRent re-validates against current ownership; a waived or
		// stale debt just clears.
		d.settleRent()
	}
	if d.CurrentCardDraw != nil && d.CurrentCardDraw.PlayerID == playerID {
		d.applyCardDraw(p)
	}

	d.DoublesRolledInTurn = 0
	d.LastDiceRoll = nil
	d.advanceToNextPlayer()
	d.checkGameEnd()
	if d.Status != StatusFinished {
		if next := d.CurrentPlayer(); next != nil {
			d.LastActionMessage = fmt.Sprintf("%s's turn", next.Name)
		}
	}
	return nil
}

// advanceToNextPlayer walks PlayerOrder from the seat after the current
// one, wrapping, until it finds a non-bankrupt player. If only the current
// player survives the index stays put.
func (d *GameDocument) advanceToNextPlayer() {
	n := len(d.PlayerOrder)
	for step := 1; step <= n; step++ {
		idx := (d.CurrentPlayerIndex + step) % n
		p := d.Players[d.PlayerOrder[idx]]
		if p != nil && !p.IsBankrupt {
			d.CurrentPlayerIndex = idx
			d.TurnPhase = TurnAwaitingRoll
			return
		}
	}
}
