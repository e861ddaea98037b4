package engine

import (
	"errors"
	"testing"
)

// forceDraw publishes a specific card as the pending draw, bypassing the
// shuffled cursor so each effect can be exercised directly.
func forceDraw(d *GameDocument, playerID string, action CardAction, amount int) {
	d.CurrentCardDraw = &CardDraw{
		Deck:     DeckOpportunity,
		Text:     "test card",
		Action:   action,
		Amount:   amount,
		PlayerID: playerID,
		Token:    d.newToken(),
	}
}

func TestDrawCardWalksCursorAndReshuffles(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	p := d.Players["p1"]

	seen := make(map[string]int)
	for i := 0; i < len(opportunityDeck); i++ {
		d.drawCard(DeckOpportunity, p)
		if d.CurrentCardDraw == nil {
			t.Fatal("draw published nothing")
		}
		seen[d.CurrentCardDraw.Text]++
		d.CurrentCardDraw = nil
	}
	if len(seen) != len(opportunityDeck) {
		t.Errorf("one pass saw %d distinct cards, want %d", len(seen), len(opportunityDeck))
	}
	if d.OpportunityCursor != len(opportunityDeck) {
		t.Errorf("cursor = %d after full pass", d.OpportunityCursor)
	}

	// The next draw reshuffles and restarts the walk.
	d.drawCard(DeckOpportunity, p)
	if d.OpportunityCursor != 1 {
		t.Errorf("cursor after reshuffle draw = %d, want 1", d.OpportunityCursor)
	}
	if d.CurrentCardDraw == nil {
		t.Fatal("reshuffle draw published nothing")
	}
}

func TestDrawTokensDistinct(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	p := d.Players["p1"]
	d.drawCard(DeckWelfare, p)
	first := d.CurrentCardDraw.Token
	d.drawCard(DeckWelfare, p)
	if d.CurrentCardDraw.Token == first {
		t.Error("consecutive draws share a token")
	}
}

func TestResolveCardDrawAuthorization(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	forceDraw(d, "p1", CardCredit, 100)

	if err := d.ResolveCardDraw("p2"); !errors.Is(err, ErrNoCardDraw) {
		t.Errorf("non-drawer resolve err = %v, want ErrNoCardDraw", err)
	}
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatalf("drawer resolve: %v", err)
	}
	if d.CurrentCardDraw != nil {
		t.Error("draw not cleared")
	}
	if err := d.ResolveCardDraw("p1"); !errors.Is(err, ErrNoCardDraw) {
		t.Errorf("double resolve err = %v, want ErrNoCardDraw", err)
	}
}

func TestCardCreditAndDebit(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	total := d.TotalMoney()
	gov := d.GovMoney

	forceDraw(d, "p1", CardCredit, 150)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	if d.Players["p1"].Money != StartingMoney+150 || d.GovMoney != gov-150 {
		t.Errorf("credit: money=%d gov=%d", d.Players["p1"].Money, d.GovMoney)
	}

	forceDraw(d, "p1", CardDebit, 50)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	if d.Players["p1"].Money != StartingMoney+100 || d.GovMoney != gov-100 {
		t.Errorf("debit: money=%d gov=%d", d.Players["p1"].Money, d.GovMoney)
	}
	checkConservation(t, d, total)
}

func TestCardInspectionFeeScalesWithDevelopment(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	giveProperty(t, d, "p1", 1)
	giveProperty(t, d, "p1", 3)
	propA, _ := d.Property(1)
	propA.Tenancies = 3
	propB, _ := d.Property(3)
	propB.PermanentResidence = true
	total := d.TotalMoney()

	// 25 per tenancy plus 100 per permanent residence: 3*25 + 4*25 = 175.
	forceDraw(d, "p1", CardInspection, 25)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	if d.Players["p1"].Money != StartingMoney-175 {
		t.Errorf("money = %d, want %d", d.Players["p1"].Money, StartingMoney-175)
	}
	checkConservation(t, d, total)
}

func TestCardInspectionNoDevelopmentNoFee(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	giveProperty(t, d, "p1", 1)
	forceDraw(d, "p1", CardInspection, 25)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	if d.Players["p1"].Money != StartingMoney {
		t.Error("undeveloped holdings charged a fee")
	}
}

func TestCardAdvanceToPayout(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	p := d.Players["p1"]
	p.Position = 5
	payoutAmount := d.Space(PayoutPosition).Amount

	forceDraw(d, "p1", CardAdvanceToPayout, 0)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	if p.Position != PayoutPosition {
		t.Errorf("position = %d, want %d", p.Position, PayoutPosition)
	}
	if p.Money != StartingMoney+payoutAmount {
		t.Errorf("money = %d, want payout without pass-start bonus", p.Money)
	}
}

func TestCardAdvanceToPayoutWrapsWithBonus(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	p := d.Players["p1"]
	p.Position = 25 // next payout is at 20, past Start
	payoutAmount := d.Space(PayoutPosition).Amount
	total := d.TotalMoney()

	forceDraw(d, "p1", CardAdvanceToPayout, 0)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	if p.Position != PayoutPosition {
		t.Errorf("position = %d", p.Position)
	}
	if p.Money != StartingMoney+PassStartBonus+payoutAmount {
		t.Errorf("money = %d, want bonus plus payout", p.Money)
	}
	checkConservation(t, d, total)
}

func TestCardGoToDetention(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	p := d.Players["p1"]
	p.Position = 7
	forceDraw(d, "p1", CardGoToDetention, 0)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	if !p.InDetention || p.Position != VisitingPosition {
		t.Errorf("detained=%v position=%d", p.InDetention, p.Position)
	}
	if d.TurnPhase != TurnAwaitingEnd {
		t.Error("detention card must end the roll segment")
	}
}

func TestCardGrants(t *testing.T) {
	d := newMainGame(7, "p1", "p2")
	p := d.Players["p1"]

	forceDraw(d, "p1", CardGrantLegalAid, 0)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	forceDraw(d, "p1", CardGrantSteal, 0)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	forceDraw(d, "p1", CardGrantVoucher, 0)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	if p.GetOutOfDetentionCards != 1 || p.StealCards != 1 || !p.HasHousingVoucher {
		t.Errorf("grants: %+v", p)
	}
}

func TestCardCollectFromEach(t *testing.T) {
	d := newMainGame(7, "p1", "p2", "p3", "p4")
	d.Players["p4"].IsBankrupt = true
	total := d.TotalMoney()

	forceDraw(d, "p1", CardCollectFromEach, 20)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	if d.Players["p1"].Money != StartingMoney+40 {
		t.Errorf("collector money = %d, want +40 from two live players", d.Players["p1"].Money)
	}
	if d.Players["p2"].Money != StartingMoney-20 || d.Players["p3"].Money != StartingMoney-20 {
		t.Error("payers not debited")
	}
	if d.Players["p4"].Money != StartingMoney {
		t.Error("bankrupt player debited")
	}
	checkConservation(t, d, total)
}

func TestCardCollectFromEachBankruptsShortfall(t *testing.T) {
	d := newMainGame(7, "p1", "p2", "p3")
	d.Players["p2"].Money = 5
	total := d.TotalMoney()

	forceDraw(d, "p1", CardCollectFromEach, 20)
	if err := d.ResolveCardDraw("p1"); err != nil {
		t.Fatal(err)
	}
	if !d.Players["p2"].IsBankrupt || d.Players["p2"].Money != 0 {
		t.Error("shortfall payer not bankrupted")
	}
	if d.Players["p1"].Money != StartingMoney+25 {
		t.Errorf("collector money = %d, want 5 + 20", d.Players["p1"].Money)
	}
	checkConservation(t, d, total)
}
