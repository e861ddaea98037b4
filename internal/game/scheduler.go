package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/landlord-game/landlord/engine"
)

// Scheduler drives automated players for one game. Election is a lease held
// in the document itself: every connected client runs a scheduler, but only
// the lease holder acts, and a vanished holder is replaced the moment the
// lease runs out. A process-local lock stops overlapping store notifications
// from re-entering a turn that is already being played.
type Scheduler struct {
	Session  *Session
	ClientID string
	Log      *logrus.Entry

	// StepDelay paces the AI so humans can follow along. Zero in tests.
	StepDelay time.Duration

	mu     sync.Mutex
	acting bool
}

// errLostLease aborts an AI transaction when another client holds the lease.
var errLostLease = errors.New("scheduler: host lease held elsewhere")

// maxTurnSteps bounds one automated turn. A legal turn is far shorter; the
// cap turns a looping fault into a forced end-turn instead of a spin.
const maxTurnSteps = 64

// NewScheduler builds a scheduler identified by clientID for lease purposes.
func NewScheduler(s *Session, clientID string) *Scheduler {
	return &Scheduler{
		Session:  s,
		ClientID: clientID,
		Log:      s.Log.WithField("scheduler", clientID),
	}
}

// Run watches the game and acts on every revision until ctx ends or the
// game finishes.
func (sc *Scheduler) Run(ctx context.Context) error {
	ch, cancel, err := sc.Session.Store.Subscribe(ctx, sc.Session.Code)
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case doc, ok := <-ch:
			if !ok {
				return nil
			}
			if doc.Status == engine.StatusFinished {
				return nil
			}
			sc.Observe(ctx, doc)
		}
	}
}

// Observe reacts to one document revision: sweep stale trade proposals,
// then play for whichever automated player the document says should act.
func (sc *Scheduler) Observe(ctx context.Context, doc *engine.GameDocument) {
	sc.sweepSwap(doc)

	aiID := sc.pendingAI(doc)
	if aiID == "" {
		return
	}

	sc.mu.Lock()
	if sc.acting {
		sc.mu.Unlock()
		return // a turn is already in flight; it drains pending work itself
	}
	sc.acting = true
	sc.mu.Unlock()

	go func() {
		defer func() {
			sc.mu.Lock()
			sc.acting = false
			sc.mu.Unlock()
		}()
		sc.drain(ctx)
	}()
}

// drain keeps acting while the document is waiting on an automated player.
// Notifications that arrived mid-turn were dropped by the reentrancy gate,
// so the loop re-reads until nothing is pending. A pass that commits no
// revision (lost lease, persistent error) stops the loop; the next store
// notification tries again.
func (sc *Scheduler) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		cur, err := sc.Session.Store.Get(ctx, sc.Session.Code)
		if err != nil {
			return
		}
		aiID := sc.pendingAI(cur)
		if aiID == "" {
			return
		}
		before := cur.Rev
		if cur.GamePhase == engine.PhaseSetup {
			sc.preGameRoll(ctx, aiID)
		} else {
			sc.playTurn(ctx, aiID)
		}
		after, err := sc.Session.Store.Get(ctx, sc.Session.Code)
		if err != nil || after.Rev == before {
			return
		}
	}
}

// pendingAI returns the automated player the document is waiting on, if any.
func (sc *Scheduler) pendingAI(doc *engine.GameDocument) string {
	if doc.Status != engine.StatusActive {
		return ""
	}
	if doc.GamePhase == engine.PhaseSetup {
		for _, id := range doc.PlayerOrder {
			p := doc.Players[id]
			if p != nil && p.IsAI {
				if _, rolled := doc.PreGameRolls[id]; !rolled {
					return id
				}
			}
		}
		return ""
	}
	p := doc.CurrentPlayer()
	if p != nil && p.IsAI && !p.IsBankrupt {
		return p.ID
	}
	return ""
}

// sweepSwap clears a trade proposal past its timeout. Every client observes
// the same timestamps, so whichever update commits first wins and the rest
// find nothing to clear.
func (sc *Scheduler) sweepSwap(doc *engine.GameDocument) {
	sw := doc.CurrentSwapProposal
	if sw == nil || sc.Session.Now()-sw.CreatedAt < engine.SwapTimeoutMillis {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := sc.Session.ExpireSwap(ctx); err != nil && !errors.Is(err, engine.ErrNoProposal) {
			sc.Log.WithError(err).Warn("swap sweep failed")
		}
	}()
}

// preGameRoll performs one automated turn-order roll.
func (sc *Scheduler) preGameRoll(ctx context.Context, aiID string) {
	_, err := sc.Session.update(ctx, aiID, "pre-game-roll", nil, func(doc *engine.GameDocument) error {
		if !doc.AcquireHostLease(sc.ClientID, sc.Session.Now()) {
			return errLostLease
		}
		p := doc.Players[aiID]
		if p == nil || !p.IsAI {
			return engine.ErrNoSuchPlayer
		}
		_, rollErr := doc.PreGameRoll(aiID)
		return rollErr
	})
	if err != nil && !errors.Is(err, errLostLease) && !errors.Is(err, engine.ErrAlreadyRolled) {
		sc.Log.WithError(err).WithField("ai", aiID).Warn("ai pre-game roll failed")
	}
}

// playTurn drives one automated player through a full turn, each step its
// own transaction that re-verifies the world before acting. Any step error
// that is not a lost lease falls back to forcing the turn to end, so a
// faulted AI can never wedge the game.
func (sc *Scheduler) playTurn(ctx context.Context, aiID string) {
	for step := 0; step < maxTurnSteps; step++ {
		if ctx.Err() != nil {
			return
		}
		doc, err := sc.Session.Store.Get(ctx, sc.Session.Code)
		if err != nil {
			sc.Log.WithError(err).Warn("ai turn read failed")
			return
		}
		if doc.Status != engine.StatusActive || doc.GamePhase != engine.PhaseMain ||
			doc.CurrentPlayerID() != aiID {
			return // turn is over, or was never ours
		}

		act, done := sc.nextStep(doc, aiID)
		if done {
			return
		}
		if err := sc.step(ctx, aiID, act); err != nil {
			if errors.Is(err, errLostLease) {
				return // another client's scheduler has taken over
			}
			sc.Log.WithError(err).WithFields(logrus.Fields{
				"ai":     aiID,
				"action": act.name,
			}).Warn("ai step failed, forcing end of turn")
			sc.forceEndTurn(ctx, aiID)
			return
		}
		if sc.StepDelay > 0 {
			time.Sleep(sc.StepDelay)
		}
	}
	sc.Log.WithField("ai", aiID).Error("ai turn exceeded step budget, forcing end of turn")
	sc.forceEndTurn(ctx, aiID)
}

// aiStep names one transition of the automated turn.
type aiStep struct {
	name string
	args map[string]any
	fn   func(doc *engine.GameDocument) error
}

// nextStep decides the next transition from the current document, or
// reports the turn done.
func (sc *Scheduler) nextStep(doc *engine.GameDocument, aiID string) (aiStep, bool) {
	p := doc.Players[aiID]

	// Obligations from the last roll come first.
	if doc.PendingRent != nil && doc.PendingRent.PayerID == aiID {
		return aiStep{name: "settle-rent", fn: func(d *engine.GameDocument) error {
			_, err := d.SettleRent(aiID)
			return err
		}}, false
	}
	if doc.CurrentCardDraw != nil && doc.CurrentCardDraw.PlayerID == aiID {
		return aiStep{name: "resolve-card", fn: func(d *engine.GameDocument) error {
			return d.ResolveCardDraw(aiID)
		}}, false
	}

	if doc.TurnPhase == engine.TurnAwaitingRoll {
		if p.InDetention {
			option := doc.ChooseDetentionOption(aiID)
			if option == "" {
				// Nothing left but sitting the turn out.
				return aiStep{name: "end-turn", fn: func(d *engine.GameDocument) error {
					return d.EndTurn(aiID)
				}}, false
			}
			return aiStep{
				name: "use-detention-option",
				args: map[string]any{"option": option},
				fn: func(d *engine.GameDocument) error {
					_, err := d.UseDetentionOption(aiID, option)
					return err
				},
			}, false
		}

		// Build before rolling: rent is charged on landing, not on leaving.
		if plan := doc.DevelopmentPlan(aiID); len(plan) > 0 {
			choice := plan[0]
			return aiStep{
				name: "develop-property",
				args: map[string]any{"property": choice.PropertyID, "kind": choice.Kind},
				fn: func(d *engine.GameDocument) error {
					return d.DevelopProperty(aiID, choice.PropertyID, choice.Kind)
				},
			}, false
		}
		return aiStep{name: "roll", fn: func(d *engine.GameDocument) error {
			_, err := d.Roll(aiID)
			return err
		}}, false
	}

	// Roll segment finished: consider buying the landing space.
	if roll := doc.LastDiceRoll; roll != nil && roll.PlayerID == aiID && !p.InDetention {
		pos := p.Position
		if prop, err := doc.Property(pos); err == nil && doc.OwnerOf(pos) == nil && prop != nil &&
			doc.ShouldBuy(aiID, pos) {
			return aiStep{
				name: "buy-property",
				args: map[string]any{"property": pos},
				fn: func(d *engine.GameDocument) error {
					return d.BuyProperty(aiID)
				},
			}, false
		}
	}
	if plan := doc.DevelopmentPlan(aiID); len(plan) > 0 {
		choice := plan[0]
		return aiStep{
			name: "develop-property",
			args: map[string]any{"property": choice.PropertyID, "kind": choice.Kind},
			fn: func(d *engine.GameDocument) error {
				return d.DevelopProperty(aiID, choice.PropertyID, choice.Kind)
			},
		}, false
	}

	return aiStep{name: "end-turn", fn: func(d *engine.GameDocument) error {
		return d.EndTurn(aiID)
	}}, false
}

// step runs one transition transactionally, renewing the lease and
// re-verifying that the world still expects this AI to act.
func (sc *Scheduler) step(ctx context.Context, aiID string, act aiStep) error {
	committed, err := sc.Session.update(ctx, aiID, act.name, act.args, func(doc *engine.GameDocument) error {
		if !doc.AcquireHostLease(sc.ClientID, sc.Session.Now()) {
			return errLostLease
		}
		if err := verifyAITurn(doc, aiID); err != nil {
			return err
		}
		return act.fn(doc)
	})
	if err != nil {
		return err
	}
	_, err = sc.Session.finishing(committed, nil)
	return err
}

// verifyAITurn re-checks inside the transaction that the automated player
// still exists, is still automated, and still holds the turn.
func verifyAITurn(d *engine.GameDocument, aiID string) error {
	if d.Status != engine.StatusActive || d.GamePhase != engine.PhaseMain {
		return engine.ErrWrongPhase
	}
	p := d.Players[aiID]
	if p == nil || !p.IsAI {
		return fmt.Errorf("%w: %s is not an automated seat", engine.ErrNotAuthorized, aiID)
	}
	if d.CurrentPlayerID() != aiID {
		return engine.ErrNotYourTurn
	}
	return nil
}

// forceEndTurn is the fault fallback: whatever went wrong, the turn ends so
// play continues. EndTurn itself settles any outstanding obligations.
func (sc *Scheduler) forceEndTurn(ctx context.Context, aiID string) {
	_, err := sc.Session.update(ctx, aiID, "end-turn", map[string]any{"forced": true}, func(doc *engine.GameDocument) error {
		if !doc.AcquireHostLease(sc.ClientID, sc.Session.Now()) {
			return errLostLease
		}
		if doc.CurrentPlayerID() != aiID {
			return engine.ErrNotYourTurn
		}
		return doc.EndTurn(aiID)
	})
	if err != nil && !errors.Is(err, errLostLease) && !errors.Is(err, engine.ErrNotYourTurn) {
		sc.Log.WithError(err).WithField("ai", aiID).Error("forced end-turn failed")
	}
}
