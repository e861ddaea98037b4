package engine

import (
	"fmt"
	"sort"
)

// NewGameDocument creates the shared document for a fresh session. The
// creator occupies the first seat; the RNG is seeded once from the caller's
// random source and advances only inside committed transitions.
func NewGameDocument(code, creatorID, creatorName string, seed uint64, now int64) *GameDocument {
	if seed == 0 {
		seed = 1 // xorshift can't start at 0
	}
	board := NewBoard()
	d := &GameDocument{
		Code:         code,
		Status:       StatusWaiting,
		GamePhase:    PhaseSetup,
		PreGamePhase: true,
		Players:      make(map[string]*PlayerState),
		BoardLayout:  board,
		PropertyData: newPropertyData(board),
		BankMoney:    BankReserve,
		GovMoney:     GovReserve,
		PreGameRolls: make(map[string]int),
		CreatorID:    creatorID,
		RNG:          seed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.OpportunityOrder = d.shuffledOrder(len(opportunityDeck))
	d.WelfareOrder = d.shuffledOrder(len(welfareDeck))
	if err := d.AddPlayer(creatorID, creatorName, false, ""); err != nil {
		// Empty document cannot be full or started.
		panic(err)
	}
	return d
}

// shuffledOrder returns a Fisher-Yates permutation of [0, n) drawn from the
// document RNG.
func (d *GameDocument) shuffledOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(d.randN(uint64(i + 1)))
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// AddPlayer seats a new player (or automated seat) in a waiting game.
// Join order is provisional; pre-game rolls fix the final turn order.
func (d *GameDocument) AddPlayer(id, name string, isAI bool, team string) error {
	if d.Status != StatusWaiting {
		return ErrGameAlreadyStarted
	}
	if len(d.Players) >= MaxSeats {
		return ErrGameFull
	}
	if _, exists := d.Players[id]; exists {
		return fmt.Errorf("%w: %s already seated", ErrNotAuthorized, id)
	}
	d.Players[id] = &PlayerState{
		ID:       id,
		Name:     name,
		Money:    StartingMoney,
		Position: StartPosition,
		IsAI:     isAI,
		Team:     team,
	}
	d.PlayerOrder = append(d.PlayerOrder, id)
	d.BankMoney -= StartingMoney
	d.LastActionMessage = fmt.Sprintf("%s joined the game", name)
	return nil
}

// Begin moves a waiting game into the pre-game roll-off. Only the creator
// may start, and at least two seats must be filled.
func (d *GameDocument) Begin(callerID string) error {
	if d.Status != StatusWaiting {
		return ErrGameAlreadyStarted
	}
	if callerID != d.CreatorID {
		return fmt.Errorf("%w: only the creator can start the game", ErrNotAuthorized)
	}
	if len(d.Players) < 2 {
		return fmt.Errorf("%w: need at least two players", ErrNotAuthorized)
	}
	d.Status = StatusActive
	d.LastActionMessage = "roll to decide turn order"
	return nil
}

// PreGameRoll records a player's turn-order roll. Once every seat has
// rolled, the order is finalized and main play begins.
func (d *GameDocument) PreGameRoll(playerID string) (*DiceRoll, error) {
	if d.Status != StatusActive || d.GamePhase != PhaseSetup {
		return nil, fmt.Errorf("%w: pre-game rolls only during setup", ErrWrongPhase)
	}
	p, err := d.Player(playerID)
	if err != nil {
		return nil, err
	}
	if _, done := d.PreGameRolls[playerID]; done {
		return nil, ErrAlreadyRolled
	}
	d1, d2 := d.rollDie(), d.rollDie()
	d.PreGameRolls[playerID] = d1 + d2
	d.LastDiceRoll = &DiceRoll{
		Die1: d1, Die2: d2, Total: d1 + d2,
		IsDouble: d1 == d2, PlayerID: playerID, Token: d.newToken(),
	}
	d.LastActionMessage = fmt.Sprintf("%s rolled %d for turn order", p.Name, d1+d2)

	if len(d.PreGameRolls) == len(d.Players) {
		d.finalizeTurnOrder()
	}
	return d.LastDiceRoll, nil
}

// finalizeTurnOrder fixes PlayerOrder by descending roll-off sum, ties
// broken by join order, and opens the main phase.
func (d *GameDocument) finalizeTurnOrder() {
	joinIndex := make(map[string]int, len(d.PlayerOrder))
	for i, id := range d.PlayerOrder {
		joinIndex[id] = i
	}
	order := append([]string(nil), d.PlayerOrder...)
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := d.PreGameRolls[order[a]], d.PreGameRolls[order[b]]
		if ra != rb {
			return ra > rb
		}
		return joinIndex[order[a]] < joinIndex[order[b]]
	})
	d.PlayerOrder = order
	d.CurrentPlayerIndex = 0
	d.GamePhase = PhaseMain
	d.PreGamePhase = false
	d.TurnPhase = TurnAwaitingRoll
	d.DoublesRolledInTurn = 0
	d.LastDiceRoll = nil
	first := d.Players[order[0]]
	d.LastActionMessage = fmt.Sprintf("%s goes first", first.Name)
}
