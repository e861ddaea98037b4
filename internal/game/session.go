// Package game binds the pure engine to the document store. Every named
// player action is one atomic store.Update: read the latest document, run
// the engine transition on a private copy, commit only if no other writer
// raced in between. Validation failures surface to the acting caller only;
// nothing is ever half-applied.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/landlord-game/landlord/engine"
	"github.com/landlord-game/landlord/internal/auth"
	"github.com/landlord-game/landlord/internal/cache"
	"github.com/landlord-game/landlord/internal/database"
	"github.com/landlord-game/landlord/internal/store"
)

// Session is one client's handle on a game: the store, the session code,
// and a clock (overridable in tests).
type Session struct {
	Code  string
	Store store.Store
	Log   *logrus.Entry
	Now   func() int64
}

// NewSession builds a handle for an existing game.
func NewSession(code string, st store.Store) *Session {
	return &Session{
		Code:  code,
		Store: st,
		Log:   logrus.WithField("game", code),
		Now:   func() int64 { return time.Now().UnixMilli() },
	}
}

// CreateOptions configures a new game.
type CreateOptions struct {
	Passcode string // optional; bcrypt-hashed into the document
	AISeats  int    // automated opponents seated at creation
	TeamMode bool
	Seed     uint64 // 0 means derive from the clock
}

// Create seats the host in a fresh document and stores it.
func Create(ctx context.Context, st store.Store, hostID, hostName string, opts CreateOptions) (*Session, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	code := NewSessionCode()
	doc := engine.NewGameDocument(code, hostID, hostName, seed, time.Now().UnixMilli())
	doc.TeamMode = opts.TeamMode

	if opts.Passcode != "" {
		hash, err := auth.HashPasscode(opts.Passcode)
		if err != nil {
			return nil, err
		}
		doc.PasscodeHash = hash
	}
	for i := 0; i < opts.AISeats; i++ {
		id := uuid.NewString()
		if err := doc.AddPlayer(id, fmt.Sprintf("Landlord Bot %d", i+1), true, ""); err != nil {
			return nil, err
		}
	}

	if err := st.Set(ctx, code, doc); err != nil {
		return nil, err
	}
	s := NewSession(code, st)
	s.Log.WithFields(logrus.Fields{
		"host":    hostID,
		"aiSeats": opts.AISeats,
		"private": opts.Passcode != "",
	}).Info("game created")
	s.record(hostID, "create", map[string]any{"aiSeats": opts.AISeats, "teamMode": opts.TeamMode}, doc.Rev)
	return s, nil
}

// Join seats a player in the waiting room, checking the passcode for
// private sessions.
func (s *Session) Join(ctx context.Context, playerID, name, passcode, team string) (*engine.GameDocument, error) {
	return s.update(ctx, playerID, "join", map[string]any{"name": name}, func(doc *engine.GameDocument) error {
		if doc.PasscodeHash != "" && !auth.CheckPasscode(doc.PasscodeHash, passcode) {
			return engine.ErrNotAuthorized
		}
		if _, ok := doc.Players[playerID]; ok {
			return nil // rejoin; the seat already exists
		}
		return doc.AddPlayer(playerID, name, false, team)
	})
}

// Begin moves the waiting room into the pre-game roll-off. Creator only.
// The initial snapshot goes to the archive once play is underway.
func (s *Session) Begin(ctx context.Context, callerID string) (*engine.GameDocument, error) {
	doc, err := s.update(ctx, callerID, "begin", nil, func(doc *engine.GameDocument) error {
		return doc.Begin(callerID)
	})
	if err != nil {
		return nil, err
	}
	if database.DB != nil {
		go func(snapshot *engine.GameDocument) {
			dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := database.UpsertInitialGameState(dbCtx, snapshot); err != nil {
				s.Log.WithError(err).Warn("initial archive failed")
			}
		}(doc)
	}
	return doc, nil
}

// PreGameRoll records the player's turn-order roll.
func (s *Session) PreGameRoll(ctx context.Context, playerID string) (*engine.GameDocument, error) {
	return s.update(ctx, playerID, "pre-game-roll", nil, func(doc *engine.GameDocument) error {
		_, err := doc.PreGameRoll(playerID)
		return err
	})
}

// Roll moves the current player.
func (s *Session) Roll(ctx context.Context, playerID string) (*engine.GameDocument, error) {
	return s.finishing(s.update(ctx, playerID, "roll", nil, func(doc *engine.GameDocument) error {
		_, err := doc.Roll(playerID)
		return err
	}))
}

// EndTurn hands play to the next player, settling anything the final roll
// left outstanding.
func (s *Session) EndTurn(ctx context.Context, playerID string) (*engine.GameDocument, error) {
	return s.finishing(s.update(ctx, playerID, "end-turn", nil, func(doc *engine.GameDocument) error {
		return doc.EndTurn(playerID)
	}))
}

// BuyProperty purchases the space the player's roll landed on.
func (s *Session) BuyProperty(ctx context.Context, playerID string) (*engine.GameDocument, error) {
	return s.update(ctx, playerID, "buy-property", nil, func(doc *engine.GameDocument) error {
		return doc.BuyProperty(playerID)
	})
}

// DevelopProperty adds a tenancy or builds the permanent residence.
func (s *Session) DevelopProperty(ctx context.Context, playerID string, propertyID int, kind engine.DevelopmentKind) (*engine.GameDocument, error) {
	args := map[string]any{"property": propertyID, "kind": kind}
	return s.update(ctx, playerID, "develop-property", args, func(doc *engine.GameDocument) error {
		return doc.DevelopProperty(playerID, propertyID, kind)
	})
}

// SettleRent pays the rent the player's landing recorded as due.
func (s *Session) SettleRent(ctx context.Context, playerID string) (*engine.GameDocument, error) {
	return s.finishing(s.update(ctx, playerID, "settle-rent", nil, func(doc *engine.GameDocument) error {
		_, err := doc.SettleRent(playerID)
		return err
	}))
}

// ResolveCard applies the player's pending card draw.
func (s *Session) ResolveCard(ctx context.Context, playerID string) (*engine.GameDocument, error) {
	return s.finishing(s.update(ctx, playerID, "resolve-card", nil, func(doc *engine.GameDocument) error {
		return doc.ResolveCardDraw(playerID)
	}))
}

// UseDetentionOption spends the player's detention exit attempt.
func (s *Session) UseDetentionOption(ctx context.Context, playerID string, option engine.DetentionOption) (*engine.GameDocument, error) {
	args := map[string]any{"option": option}
	return s.update(ctx, playerID, "use-detention-option", args, func(doc *engine.GameDocument) error {
		_, err := doc.UseDetentionOption(playerID, option)
		return err
	})
}

// ProposeSwap advances the two-phase trade handshake.
func (s *Session) ProposeSwap(ctx context.Context, playerID string, propertyID int) (*engine.GameDocument, error) {
	args := map[string]any{"property": propertyID}
	return s.update(ctx, playerID, "propose-swap", args, func(doc *engine.GameDocument) error {
		return doc.ProposeSwap(playerID, propertyID, s.Now())
	})
}

// ResolveSwap confirms or cancels an armed trade proposal.
func (s *Session) ResolveSwap(ctx context.Context, playerID string, propertyID int) (*engine.GameDocument, error) {
	args := map[string]any{"property": propertyID}
	return s.update(ctx, playerID, "resolve-swap", args, func(doc *engine.GameDocument) error {
		return doc.ResolveSwap(playerID, propertyID)
	})
}

// Steal plays a steal card against another player's property.
func (s *Session) Steal(ctx context.Context, playerID string, propertyID int) (*engine.GameDocument, error) {
	args := map[string]any{"property": propertyID}
	return s.finishing(s.update(ctx, playerID, "steal", args, func(doc *engine.GameDocument) error {
		return doc.Steal(playerID, propertyID)
	}))
}

// ExpireSwap clears a trade proposal past its timeout. Any observer may
// call it; racing observers are harmless because the losing transaction
// just finds no proposal.
func (s *Session) ExpireSwap(ctx context.Context) (*engine.GameDocument, error) {
	return s.update(ctx, "", "expire-swap", nil, func(doc *engine.GameDocument) error {
		if !doc.ExpireSwap(s.Now()) {
			return engine.ErrNoProposal
		}
		return nil
	})
}

// update runs one transactional action and records it with the historian.
func (s *Session) update(ctx context.Context, actorID, actionType string, args map[string]any, fn store.UpdateFunc) (*engine.GameDocument, error) {
	doc, err := s.Store.Update(ctx, s.Code, fn)
	if err != nil {
		s.Log.WithError(err).WithFields(logrus.Fields{
			"actor":  actorID,
			"action": actionType,
		}).Debug("action rejected")
		return nil, err
	}
	s.record(actorID, actionType, args, doc.Rev)
	return doc, nil
}

// finishing archives the final document when an action just ended the game.
func (s *Session) finishing(doc *engine.GameDocument, err error) (*engine.GameDocument, error) {
	if err != nil || doc == nil {
		return doc, err
	}
	if doc.Status == engine.StatusFinished && database.DB != nil {
		go func(snapshot *engine.GameDocument) {
			dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := database.StoreFinalGameState(dbCtx, snapshot); err != nil {
				s.Log.WithError(err).Warn("final archive failed")
			}
		}(doc)
	}
	return doc, nil
}

// record queues the action for the historian. Fire and forget off the hot
// path, exactly one record per committed revision.
func (s *Session) record(actorID, actionType string, args map[string]any, rev int64) {
	var payload json.RawMessage
	if args != nil {
		if b, err := json.Marshal(args); err == nil {
			payload = b
		}
	}
	rec := cache.GameActionRecord{
		GameCode:   s.Code,
		Rev:        rev,
		ActorID:    actorID,
		ActionType: actionType,
		Payload:    payload,
		Timestamp:  s.Now(),
	}
	go func() {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			s.Log.WithError(err).WithField("action", rec.ActionType).Warn("historian publish failed")
		}
	}()
}

// sessionCodeAlphabet avoids lookalike characters.
const sessionCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewSessionCode returns a 5-character join code.
func NewSessionCode() string {
	raw := uuid.New()
	code := make([]byte, 5)
	for i := range code {
		code[i] = sessionCodeAlphabet[int(raw[i])%len(sessionCodeAlphabet)]
	}
	return string(code)
}
