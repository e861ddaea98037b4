package engine

import (
	"errors"
	"testing"
)

func TestNewGameDocumentShape(t *testing.T) {
	d := NewGameDocument("ABC123", "p1", "Alice", 42, 1000)

	if len(d.BoardLayout) != BoardSize {
		t.Fatalf("board has %d spaces, want %d", len(d.BoardLayout), BoardSize)
	}
	ownable := 0
	for i := range d.BoardLayout {
		if d.BoardLayout[i].Ownable() {
			ownable++
		}
	}
	if ownable != 28 {
		t.Errorf("ownable spaces = %d, want 28", ownable)
	}
	if len(d.PropertyData) != ownable {
		t.Errorf("propertyData has %d records, want %d", len(d.PropertyData), ownable)
	}
	if d.Status != StatusWaiting || d.GamePhase != PhaseSetup || !d.PreGamePhase {
		t.Errorf("fresh game in wrong lifecycle state: %s/%s/%v", d.Status, d.GamePhase, d.PreGamePhase)
	}
	if len(d.OpportunityOrder) != len(opportunityDeck) || len(d.WelfareOrder) != len(welfareDeck) {
		t.Errorf("deck orders not initialized")
	}
	if d.Players["p1"] == nil || d.Players["p1"].Money != StartingMoney {
		t.Errorf("creator not seated with starting money")
	}
}

func TestBoardGroups(t *testing.T) {
	d := NewGameDocument("ABC123", "p1", "Alice", 42, 1000)

	for _, g := range []string{GroupTransit, GroupUtilities} {
		if got := len(d.GroupMembers(g)); got != 3 {
			t.Errorf("group %s has %d members, want 3", g, got)
		}
		if !IsAutoConsolidating(g) {
			t.Errorf("group %s should auto-consolidate", g)
		}
	}
	if IsAutoConsolidating(GroupOldTown) {
		t.Error("street groups must not auto-consolidate")
	}
	for i := range d.BoardLayout {
		s := &d.BoardLayout[i]
		if s.ID != i {
			t.Errorf("space %d carries id %d", i, s.ID)
		}
		if s.Type == SpaceStreet && len(s.Rent) != MaxTenancies+2 {
			t.Errorf("street %s has %d rent tiers, want %d", s.Name, len(s.Rent), MaxTenancies+2)
		}
	}
}

func TestAddPlayerLimits(t *testing.T) {
	d := NewGameDocument("ABC123", "p1", "Alice", 42, 1000)
	for i := 2; i <= MaxSeats; i++ {
		if err := d.AddPlayer(string(rune('a'+i)), "Bot", true, ""); err != nil {
			t.Fatalf("seat %d: %v", i, err)
		}
	}
	if err := d.AddPlayer("extra", "Late", false, ""); !errors.Is(err, ErrGameFull) {
		t.Errorf("seat %d err = %v, want ErrGameFull", MaxSeats+1, err)
	}

	d.Status = StatusActive
	if err := d.AddPlayer("later", "Later", false, ""); !errors.Is(err, ErrGameAlreadyStarted) {
		t.Errorf("join after start err = %v, want ErrGameAlreadyStarted", err)
	}
}

func TestBeginRequiresCreatorAndTwoPlayers(t *testing.T) {
	d := NewGameDocument("ABC123", "p1", "Alice", 42, 1000)
	if err := d.Begin("p1"); err == nil {
		t.Fatal("Begin with one player should fail")
	}
	if err := d.AddPlayer("p2", "Bob", false, ""); err != nil {
		t.Fatal(err)
	}
	if err := d.Begin("p2"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("Begin by non-creator err = %v, want ErrNotAuthorized", err)
	}
	if err := d.Begin("p1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if d.Status != StatusActive || d.GamePhase != PhaseSetup {
		t.Errorf("after Begin: %s/%s", d.Status, d.GamePhase)
	}
}

func TestPreGameRollsFixTurnOrder(t *testing.T) {
	d := NewGameDocument("ABC123", "p1", "Alice", 42, 1000)
	for _, id := range []string{"p2", "p3"} {
		if err := d.AddPlayer(id, "Player "+id, false, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.Begin("p1"); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := d.PreGameRoll(id); err != nil {
			t.Fatalf("PreGameRoll(%s): %v", id, err)
		}
	}
	if _, err := d.PreGameRoll("p1"); !errors.Is(err, ErrAlreadyRolled) {
		t.Errorf("second roll err = %v, want ErrAlreadyRolled", err)
	}

	if d.GamePhase != PhaseMain || d.PreGamePhase {
		t.Fatal("all rolls recorded but main phase not opened")
	}
	if d.TurnPhase != TurnAwaitingRoll || d.CurrentPlayerIndex != 0 {
		t.Errorf("turn state after finalize: %s idx=%d", d.TurnPhase, d.CurrentPlayerIndex)
	}

	// Order is descending by roll-off sum, ties by join order.
	for i := 0; i+1 < len(d.PlayerOrder); i++ {
		a, b := d.PlayerOrder[i], d.PlayerOrder[i+1]
		if d.PreGameRolls[a] < d.PreGameRolls[b] {
			t.Errorf("order %v violates roll sums %v", d.PlayerOrder, d.PreGameRolls)
		}
	}
}

func TestPreGameRollsCarryDistinctTokens(t *testing.T) {
	d := NewGameDocument("ABC123", "p1", "Alice", 42, 1000)
	if err := d.AddPlayer("p2", "Bob", false, ""); err != nil {
		t.Fatal(err)
	}
	if err := d.Begin("p1"); err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, id := range []string{"p1", "p2"} {
		roll, err := d.PreGameRoll(id)
		if err != nil {
			t.Fatalf("PreGameRoll(%s): %v", id, err)
		}
		if roll.Token == "" {
			t.Fatalf("roll-off roll for %s has no token", id)
		}
		if seen[roll.Token] {
			t.Fatalf("token %q repeated across roll-off rolls", roll.Token)
		}
		seen[roll.Token] = true
	}
}

func TestTotalMoneyConstantThroughSetup(t *testing.T) {
	d := NewGameDocument("ABC123", "p1", "Alice", 42, 1000)
	want := d.TotalMoney()
	_ = d.AddPlayer("p2", "Bob", false, "")
	_ = d.Begin("p1")
	_, _ = d.PreGameRoll("p1")
	_, _ = d.PreGameRoll("p2")
	checkConservation(t, d, want)
}
