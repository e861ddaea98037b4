package engine

import (
	"errors"
	"testing"
)

func TestEndTurnAdvancesAndResets(t *testing.T) {
	d := newMainGame(7, "p1", "p2", "p3")
	d.TurnPhase = TurnAwaitingEnd
	d.LastDiceRoll = &DiceRoll{Die1: 2, Die2: 3, Total: 5, PlayerID: "p1"}
	d.DoublesRolledInTurn = 1

	if err := d.EndTurn("p1"); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if d.CurrentPlayerID() != "p2" {
		t.Errorf("current = %s, want p2", d.CurrentPlayerID())
	}
	if d.TurnPhase != TurnAwaitingRoll {
		t.Error("next player must start awaiting their roll")
	}
	if d.LastDiceRoll != nil || d.DoublesRolledInTurn != 0 {
		t.Error("roll state not reset")
	}
}

func TestEndTurnSkipsBankruptSeats(t *testing.T) {
	d := newMainGame(7, "p1", "p2", "p3")
	d.Players["p2"].IsBankrupt = true
	d.TurnPhase = TurnAwaitingEnd

	if err := d.EndTurn("p1"); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if d.CurrentPlayerID() != "p3" {
		t.Errorf("current = %s, want p3 (p2 skipped)", d.CurrentPlayerID())
	}
}

func TestEndTurnRejections(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	if err := d.EndTurn("p2"); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("off-turn err = %v", err)
	}
	if err := d.EndTurn("p1"); !errors.Is(err, ErrWrongTurnPhase) {
		t.Errorf("pre-roll err = %v", err)
	}
	if err := d.EndTurn("nobody"); !errors.Is(err, ErrNoSuchPlayer) {
		t.Errorf("unknown player err = %v", err)
	}
}

func TestEndTurnSettlesOutstandingObligations(t *testing.T) {
	// A forced end-turn must not strand a rent debt or an unresolved draw.
	d := newMainGame(7, "p1", "p2")
	giveProperty(t, d, "p2", 1)
	d.TurnPhase = TurnAwaitingEnd
	d.PendingRent = &RentDue{PayerID: "p1", PropertyID: 1}
	forceDraw(d, "p1", CardCredit, 100)
	total := d.TotalMoney()

	if err := d.EndTurn("p1"); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if d.PendingRent != nil || d.CurrentCardDraw != nil {
		t.Error("obligations survived the turn end")
	}
	if d.Players["p1"].Money != StartingMoney-2+100 {
		t.Errorf("p1 money = %d, want rent paid and card applied", d.Players["p1"].Money)
	}
	if d.Players["p2"].Money != StartingMoney+2 {
		t.Errorf("p2 money = %d", d.Players["p2"].Money)
	}
	checkConservation(t, d, total)
}

func TestEndTurnIgnoresOthersObligations(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	giveProperty(t, d, "p1", 1)
	d.TurnPhase = TurnAwaitingEnd
	d.PendingRent = &RentDue{PayerID: "p2", PropertyID: 1}

	if err := d.EndTurn("p1"); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if d.PendingRent == nil {
		t.Error("another player's pending rent was settled")
	}
}

func TestBankruptCurrentPlayerMayEndImmediately(t *testing.T) {
	d := newMainGame(7, "p1", "p2", "p3")
	d.Players["p1"].IsBankrupt = true

	if err := d.EndTurn("p1"); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if d.CurrentPlayerID() != "p2" {
		t.Errorf("current = %s", d.CurrentPlayerID())
	}
}

func TestLastSurvivorWins(t *testing.T) {
	d := newMainGame(7, "p1", "p2", "p3")
	d.Players["p1"].IsBankrupt = true
	d.Players["p3"].IsBankrupt = true

	if err := d.EndTurn("p1"); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if d.Status != StatusFinished || d.Winner != "p2" {
		t.Errorf("status=%s winner=%s", d.Status, d.Winner)
	}
	if err := d.EndTurn("p2"); !errors.Is(err, ErrGameFinished) {
		t.Errorf("post-finish action err = %v", err)
	}
}

func TestTeamSurvivorsWinTogether(t *testing.T) {
	d := newMainGame(7, "p1", "p2", "p3", "p4")
	d.TeamMode = true
	d.Players["p1"].Team = "red"
	d.Players["p2"].Team = "red"
	d.Players["p3"].Team = "blue"
	d.Players["p4"].Team = "blue"
	d.Players["p3"].IsBankrupt = true
	d.Players["p4"].IsBankrupt = true
	d.TurnPhase = TurnAwaitingEnd

	if err := d.EndTurn("p1"); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if d.Status != StatusFinished || d.WinnerTeam != "red" {
		t.Errorf("status=%s winnerTeam=%s", d.Status, d.WinnerTeam)
	}
}
