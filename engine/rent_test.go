package engine

import (
	"errors"
	"testing"
)

func TestRentOwedTiers(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	giveProperty(t, d, "p2", 1) // Cannery Row: rent 2/10/30/90/160/250
	prop, _ := d.Property(1)

	if got := d.RentOwed(1); got != 2 {
		t.Errorf("undeveloped rent = %d, want 2", got)
	}
	for tier, want := range map[int]int{1: 10, 2: 30, 3: 90, 4: 160} {
		prop.Tenancies = tier
		if got := d.RentOwed(1); got != want {
			t.Errorf("tier %d rent = %d, want %d", tier, got, want)
		}
	}
	prop.PermanentResidence = true
	if got := d.RentOwed(1); got != 250 {
		t.Errorf("permanent residence rent = %d, want 250", got)
	}
}

func TestRentDoubledForFullGroupUndeveloped(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	giveProperty(t, d, "p2", 1)
	giveProperty(t, d, "p2", 3)

	if got := d.RentOwed(1); got != 4 {
		t.Errorf("full-group base rent = %d, want 4 (doubled)", got)
	}
	// Development replaces the doubling.
	prop, _ := d.Property(1)
	prop.Tenancies = 1
	if got := d.RentOwed(1); got != 10 {
		t.Errorf("tier-1 rent = %d, want 10", got)
	}
}

func TestFlatRentScalesWithCount(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	giveProperty(t, d, "p2", 5) // stations charge 25 per owned member

	if got := d.RentOwed(5); got != 25 {
		t.Errorf("one station rent = %d, want 25", got)
	}
	giveProperty(t, d, "p2", 15)
	giveProperty(t, d, "p2", 25)
	if got := d.RentOwed(5); got != 75 {
		t.Errorf("three station rent = %d, want 75", got)
	}

	giveProperty(t, d, "p2", 12) // utilities are a separate group
	if got := d.RentOwed(12); got != 20 {
		t.Errorf("one utility rent = %d, want 20", got)
	}
}

func TestSettleRentPaysOwner(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	giveProperty(t, d, "p2", 1)
	d.PendingRent = &RentDue{PayerID: "p1", PropertyID: 1}
	total := d.TotalMoney()

	ev, err := d.SettleRent("p1")
	if err != nil {
		t.Fatalf("SettleRent: %v", err)
	}
	if ev == nil || ev.Amount != 2 || ev.OwnerID != "p2" {
		t.Fatalf("event = %+v", ev)
	}
	if d.Players["p1"].Money != StartingMoney-2 || d.Players["p2"].Money != StartingMoney+2 {
		t.Errorf("balances %d/%d", d.Players["p1"].Money, d.Players["p2"].Money)
	}
	if d.PendingRent != nil {
		t.Error("pending rent not cleared")
	}
	if d.LastRentEvent == nil || d.LastRentEvent.Token == "" {
		t.Error("rent event not published")
	}
	checkConservation(t, d, total)

	if _, err := d.SettleRent("p1"); !errors.Is(err, ErrNoPendingRent) {
		t.Errorf("double settle err = %v, want ErrNoPendingRent", err)
	}
}

func TestSettleRentShortfallBankrupts(t *testing.T) {
	// Spec scenario: payer with 40 owes 50 → owner receives 40, payer goes
	// bankrupt and every property is released.
	d := newMainGame(7, "p1", "p2")
	giveProperty(t, d, "p2", 11) // Foundry Road
	prop, _ := d.Property(11)
	prop.Tenancies = 1 // rent 50
	giveProperty(t, d, "p1", 1)
	p1 := d.Players["p1"]
	p1.Money = 40
	d.PendingRent = &RentDue{PayerID: "p1", PropertyID: 11}
	total := d.TotalMoney()

	ev, err := d.SettleRent("p1")
	if err != nil {
		t.Fatalf("SettleRent: %v", err)
	}
	if ev != nil {
		t.Error("bankrupting payment must not publish a rent event")
	}
	if !p1.IsBankrupt || p1.Money != 0 {
		t.Errorf("payer bankrupt=%v money=%d", p1.IsBankrupt, p1.Money)
	}
	if d.Players["p2"].Money != StartingMoney+40 {
		t.Errorf("owner received %d, want +40", d.Players["p2"].Money-StartingMoney)
	}
	if prop1, _ := d.Property(1); prop1.Owner != "" {
		t.Error("payer's property not released on bankruptcy")
	}
	if d.Status != StatusFinished || d.Winner != "p2" {
		t.Errorf("two-player bankruptcy should finish the game: %s/%s", d.Status, d.Winner)
	}
	checkConservation(t, d, total)
}

func TestSettleRentWaivedForDetainedOwner(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	giveProperty(t, d, "p2", 1)
	d.Players["p2"].InDetention = true
	d.PendingRent = &RentDue{PayerID: "p1", PropertyID: 1}

	ev, err := d.SettleRent("p1")
	if err != nil {
		t.Fatalf("SettleRent: %v", err)
	}
	if ev != nil {
		t.Error("waived rent published an event")
	}
	if d.Players["p1"].Money != StartingMoney {
		t.Error("waived rent still debited the payer")
	}
	if d.PendingRent != nil {
		t.Error("pending rent survives the waiver")
	}
}

func TestSettleRentToBankWhenOwnerBankrupt(t *testing.T) {
	d := newMainGame(7, "p1", "p2", "p3")
	giveProperty(t, d, "p2", 1)
	d.Players["p2"].IsBankrupt = true // stale ownership at settlement time
	d.PendingRent = &RentDue{PayerID: "p1", PropertyID: 1}
	bank := d.BankMoney
	total := d.TotalMoney()

	if _, err := d.SettleRent("p1"); err != nil {
		t.Fatalf("SettleRent: %v", err)
	}
	if d.BankMoney != bank+2 {
		t.Errorf("bank received %d, want 2", d.BankMoney-bank)
	}
	if d.Players["p2"].Money != StartingMoney {
		t.Error("bankrupt owner credited")
	}
	checkConservation(t, d, total)
}
