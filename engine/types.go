// Package engine implements the Landlord board game rules.
//
// The package is deliberately free of service concerns: every exported
// operation is a pure transition over a GameDocument owned by the caller,
// typically the private copy handed out by a store transaction. Randomness
// lives inside the document (xorshift64 state) so that a draw or dice roll
// commits atomically with the mutation it caused.
package engine

import (
	"errors"
	"fmt"
)

// GameStatus is the coarse lifecycle state of a session.
type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusActive   GameStatus = "active"
	StatusFinished GameStatus = "finished"
)

// GamePhase distinguishes pre-game setup from main play.
type GamePhase string

const (
	PhaseSetup GamePhase = "setup"
	PhaseMain  GamePhase = "main"
)

// TurnPhase is the tagged state of the current player's turn. Detention is
// tracked per player; everything else a turn can be waiting on is here.
type TurnPhase string

const (
	TurnAwaitingRoll TurnPhase = "awaiting-roll"
	TurnAwaitingEnd  TurnPhase = "awaiting-end"
)

// SpaceType classifies the 40 board spaces.
type SpaceType string

const (
	SpaceStart       SpaceType = "start"
	SpaceStreet      SpaceType = "ownable-tiered-property"
	SpaceFlat        SpaceType = "ownable-flat-rent-property"
	SpaceDetention   SpaceType = "detention-entry"
	SpaceVisiting    SpaceType = "detention-visiting"
	SpacePayout      SpaceType = "payout"
	SpaceTax         SpaceType = "tax"
	SpacePenalty     SpaceType = "penalty"
	SpaceOpportunity SpaceType = "draw-opportunity"
	SpaceWelfare     SpaceType = "draw-welfare"
)

// BoardSpace is one immutable board position. Rent holds six tiers for
// streets: undeveloped, 1–4 tenancies, permanent residence.
type BoardSpace struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Type    SpaceType `json:"type"`
	Group   string    `json:"group,omitempty"`
	Price   int       `json:"price,omitempty"`
	Rent    []int     `json:"rent,omitempty"`
	PerUnit int       `json:"perUnit,omitempty"`
	DevCost int       `json:"devCost,omitempty"`
	Amount  int       `json:"amount,omitempty"`
}

// Ownable reports whether the space can be owned by a player.
func (s *BoardSpace) Ownable() bool {
	return s.Type == SpaceStreet || s.Type == SpaceFlat
}

// PropertyState tracks ownership and development of one ownable space.
// ID equals the board index of the space it describes.
type PropertyState struct {
	ID                 int    `json:"id"`
	Owner              string `json:"owner,omitempty"`
	Tenancies          int    `json:"tenancies"`
	PermanentResidence bool   `json:"permanentResidence"`
}

// PlayerState is one seat in the game.
type PlayerState struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Money      int    `json:"money"`
	Position   int    `json:"position"`
	Properties []int  `json:"properties"`
	IsBankrupt bool   `json:"isBankrupt"`
	IsAI       bool   `json:"isAI"`
	Team       string `json:"team,omitempty"`

	InDetention                    bool `json:"inDetention"`
	MissedTurnsInDetention         int  `json:"missedTurnsInDetention"`
	AttemptedDetentionRollThisStay bool `json:"attemptedDetentionRollThisStay"`

	GetOutOfDetentionCards int  `json:"getOutOfDetentionCards"`
	StealCards             int  `json:"stealCards"`
	HasHousingVoucher      bool `json:"hasHousingVoucher"`
}

// DiceRoll is the ephemeral record of the most recent roll. Token is unique
// per roll so observers animate each one exactly once.
type DiceRoll struct {
	Die1     int    `json:"die1"`
	Die2     int    `json:"die2"`
	Total    int    `json:"total"`
	IsDouble bool   `json:"isDouble"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

// RentEvent is transient UI feedback published after a successful,
// non-bankrupting rent payment.
type RentEvent struct {
	PayerID    string `json:"payerId"`
	OwnerID    string `json:"ownerId"`
	PropertyID int    `json:"propertyId"`
	Amount     int    `json:"amount"`
	Token      string `json:"token"`
}

// RentDue marks rent owed by a player after landing; it is settled in a
// transaction separate from the move that created it.
type RentDue struct {
	PayerID    string `json:"payerId"`
	PropertyID int    `json:"propertyId"`
}

// DeckName identifies one of the two card decks.
type DeckName string

const (
	DeckOpportunity DeckName = "opportunity"
	DeckWelfare     DeckName = "welfare"
)

// CardAction enumerates the effects a drawn card can have.
type CardAction string

const (
	CardCredit           CardAction = "credit"
	CardDebit            CardAction = "debit"
	CardInspection       CardAction = "inspection-fee"
	CardAdvanceToPayout  CardAction = "advance-to-payout"
	CardGoToDetention    CardAction = "go-to-detention"
	CardGrantLegalAid    CardAction = "grant-legal-aid"
	CardGrantSteal       CardAction = "grant-steal"
	CardGrantVoucher     CardAction = "grant-housing-voucher"
	CardCollectFromEach  CardAction = "collect-from-each"
)

// Card is one immutable deck entry.
type Card struct {
	Text   string     `json:"text"`
	Action CardAction `json:"action"`
	Amount int        `json:"amount,omitempty"`
}

// CardDraw is the ephemeral record of a drawn, not-yet-applied card.
type CardDraw struct {
	Deck     DeckName   `json:"deck"`
	Text     string     `json:"text"`
	Action   CardAction `json:"action"`
	Amount   int        `json:"amount,omitempty"`
	PlayerID string     `json:"playerId"`
	Token    string     `json:"token"`
}

// SwapProposal is the two-phase trade handshake embedded in the document.
// CardB is -1 until phase 2 completes and SwapActive flips true.
type SwapProposal struct {
	InitiatorID string `json:"initiatorId"`
	TargetID    string `json:"targetId,omitempty"`
	CardA       int    `json:"cardA"`
	CardB       int    `json:"cardB"`
	SwapActive  bool   `json:"swapActive"`
	CreatedAt   int64  `json:"createdAt"`
}

// HostLease elects the single client responsible for automated players.
// Any client may claim it once ExpiresAt (unix millis) has passed.
type HostLease struct {
	HolderID  string `json:"holderId"`
	ExpiresAt int64  `json:"expiresAt"`
}

// GameDocument is the single shared aggregate root for one session. The
// store persists and replicates it whole; every mutation goes through a
// named transition in this package.
type GameDocument struct {
	Code         string     `json:"code"`
	Status       GameStatus `json:"status"`
	GamePhase    GamePhase  `json:"gamePhase"`
	PreGamePhase bool       `json:"preGamePhase"`

	Players            map[string]*PlayerState `json:"players"`
	PlayerOrder        []string                `json:"playerOrder"`
	CurrentPlayerIndex int                     `json:"currentPlayerIndex"`

	TurnPhase           TurnPhase `json:"turnPhase"`
	DoublesRolledInTurn int       `json:"doublesRolledInTurn"`

	BoardLayout  []BoardSpace    `json:"boardLayout"`
	PropertyData []PropertyState `json:"propertyData"`

	BankMoney int `json:"bankMoney"`
	GovMoney  int `json:"govMoney"`

	LastDiceRoll        *DiceRoll     `json:"lastDiceRoll"`
	LastActionMessage   string        `json:"lastActionMessage"`
	LastRentEvent       *RentEvent    `json:"lastRentEvent"`
	PendingRent         *RentDue      `json:"pendingRent"`
	CurrentCardDraw     *CardDraw     `json:"currentCardDraw"`
	CurrentSwapProposal *SwapProposal `json:"currentSwapProposal"`
	FlashingProperties  []int         `json:"flashingProperties"`

	PreGameRolls map[string]int `json:"preGameRolls"`

	OpportunityOrder  []int `json:"opportunityOrder"`
	OpportunityCursor int   `json:"opportunityCursor"`
	WelfareOrder      []int `json:"welfareOrder"`
	WelfareCursor     int   `json:"welfareCursor"`

	HostLease *HostLease `json:"hostLease"`

	CreatorID    string `json:"creatorId"`
	PasscodeHash string `json:"passcodeHash,omitempty"`
	TeamMode     bool   `json:"teamMode"`

	Winner     string `json:"winner,omitempty"`
	WinnerTeam string `json:"winnerTeam,omitempty"`

	RNG       uint64 `json:"rng"`
	Rev       int64  `json:"rev"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Validation sentinels. Action transitions wrap these with context via
/// fmt.Errorf("%w: ..."), so callers can branch with errors.Is.
var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrWrongPhase         = errors.New("wrong game phase")
	ErrWrongTurnPhase     = errors.New("wrong turn phase")
	ErrInDetention        = errors.New("player is in detention")
	ErrNotInDetention     = errors.New("player is not in detention")
	ErrDetentionRollUsed  = errors.New("detention roll already attempted this stay")
	ErrNoSuchPlayer       = errors.New("no such player")
	ErrNoSuchProperty     = errors.New("no such property")
	ErrPlayerBankrupt     = errors.New("player is bankrupt")
	ErrNotOwnable         = errors.New("space is not ownable")
	ErrAlreadyOwned       = errors.New("property already owned")
	ErrNotOwner           = errors.New("player does not own property")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrIncompleteGroup    = errors.New("player does not own the full group")
	ErrMaxDevelopment     = errors.New("property is fully developed")
	ErrNoPendingRent      = errors.New("no rent is due")
	ErrNoCardDraw         = errors.New("no card draw pending")
	ErrObligationPending  = errors.New("an obligation from the last landing is unsettled")
	ErrNoProposal         = errors.New("no swap proposal in progress")
	ErrProposalActive     = errors.New("a swap proposal is already in progress")
	ErrProposalStale      = errors.New("swap proposal no longer matches ownership")
	ErrNoStealCard        = errors.New("no steal card held")
	ErrNoLegalAidCard     = errors.New("no legal aid card held")
	ErrGameFull           = errors.New("game is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameFinished       = errors.New("game is finished")
	ErrNotAuthorized      = errors.New("player is not authorized for this action")
	ErrAlreadyRolled      = errors.New("pre-game roll already recorded")
)

// ---------------------------------------------------------------------------
// xorshift64 RNG, state embedded in the document
// ---------------------------------------------------------------------------

func (d *GameDocument) nextRand() uint64 {
	x := d.RNG
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	d.RNG = x
	return x
}

// randN returns a random number in [0, n).
func (d *GameDocument) randN(n uint64) uint64 {
	return d.nextRand() % n
}

// rollDie returns a uniform value in [1, 6].
func (d *GameDocument) rollDie() int {
	return int(d.randN(6)) + 1
}

// newToken returns a per-event uniqueness token drawn from the document
// RNG, so the token commits atomically with the event it identifies.
func (d *GameDocument) newToken() string {
	return fmt.Sprintf("%016x", d.nextRand())
}

// ---------------------------------------------------------------------------
// Query helpers
// ---------------------------------------------------------------------------

// Player returns the player with the given id, or an error.
func (d *GameDocument) Player(id string) (*PlayerState, error) {
	p, ok := d.Players[id]
	if !ok {
		return nil, ErrNoSuchPlayer
	}
	return p, nil
}

// CurrentPlayerID returns the id of the player whose turn it is.
func (d *GameDocument) CurrentPlayerID() string {
	if len(d.PlayerOrder) == 0 {
		return ""
	}
	return d.PlayerOrder[d.CurrentPlayerIndex%len(d.PlayerOrder)]
}

// CurrentPlayer returns the player whose turn it is, or nil before the
// order is fixed.
func (d *GameDocument) CurrentPlayer() *PlayerState {
	return d.Players[d.CurrentPlayerID()]
}

// Space returns the board space at the given position.
func (d *GameDocument) Space(pos int) *BoardSpace {
	return &d.BoardLayout[pos%len(d.BoardLayout)]
}

// Property returns the mutable ownership record for a board position, or an
// error if the position is not ownable.
func (d *GameDocument) Property(id int) (*PropertyState, error) {
	for i := range d.PropertyData {
		if d.PropertyData[i].ID == id {
			return &d.PropertyData[i], nil
		}
	}
	return nil, ErrNoSuchProperty
}

// OwnerOf returns the non-bankrupt owner of a property, or nil if the
// property is unowned or its recorded owner has gone bankrupt.
func (d *GameDocument) OwnerOf(propertyID int) *PlayerState {
	prop, err := d.Property(propertyID)
	if err != nil || prop.Owner == "" {
		return nil
	}
	owner := d.Players[prop.Owner]
	if owner == nil || owner.IsBankrupt {
		return nil
	}
	return owner
}

// GroupMembers returns the board ids of every ownable space in a group, in
// board order.
func (d *GameDocument) GroupMembers(group string) []int {
	var ids []int
	for i := range d.BoardLayout {
		s := &d.BoardLayout[i]
		if s.Ownable() && s.Group == group {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// OwnsCountInGroup returns how many spaces of the group the player owns.
func (d *GameDocument) OwnsCountInGroup(playerID, group string) int {
	count := 0
	for _, id := range d.GroupMembers(group) {
		if prop, err := d.Property(id); err == nil && prop.Owner == playerID {
			count++
		}
	}
	return count
}

// OwnsFullGroup reports whether the player owns every space of the group.
func (d *GameDocument) OwnsFullGroup(playerID, group string) bool {
	members := d.GroupMembers(group)
	return len(members) > 0 && d.OwnsCountInGroup(playerID, group) == len(members)
}

// NonBankruptPlayers returns the surviving players in turn order.
func (d *GameDocument) NonBankruptPlayers() []*PlayerState {
	var out []*PlayerState
	for _, id := range d.PlayerOrder {
		if p := d.Players[id]; p != nil && !p.IsBankrupt {
			out = append(out, p)
		}
	}
	return out
}

// TotalMoney sums all money in the closed economy: player balances plus the
// bank and government pools. Constant across every transition.
func (d *GameDocument) TotalMoney() int {
	total := d.BankMoney + d.GovMoney
	for _, p := range d.Players {
		total += p.Money
	}
	return total
}

// ownsProperty reports whether the player's owned list contains id.
func (p *PlayerState) ownsProperty(id int) bool {
	for _, owned := range p.Properties {
		if owned == id {
			return true
		}
	}
	return false
}

// addProperty appends id to the player's owned list if absent.
func (p *PlayerState) addProperty(id int) {
	if !p.ownsProperty(id) {
		p.Properties = append(p.Properties, id)
	}
}

// removeProperty deletes id from the player's owned list.
func (p *PlayerState) removeProperty(id int) {
	for i, owned := range p.Properties {
		if owned == id {
			p.Properties = append(p.Properties[:i], p.Properties[i+1:]...)
			return
		}
	}
}
