// Package server is the client gateway: session create/join over plain
// HTTP, then one websocket per seat carrying actions in and document
// revisions out. The gateway holds no game state; every revision a client
// sees is a store commit.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/landlord-game/landlord/engine"
	"github.com/landlord-game/landlord/internal/auth"
	"github.com/landlord-game/landlord/internal/game"
	"github.com/landlord-game/landlord/internal/store"
)

// Server routes HTTP and websocket traffic to sessions.
type Server struct {
	Store  store.Store
	Secret []byte
	Log    *logrus.Logger
}

// New builds a gateway over the given store.
func New(st store.Store, secret []byte) *Server {
	return &Server{Store: st, Secret: secret, Log: logrus.StandardLogger()}
}

// Handler returns the gateway's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/session", s.handleCreate)
	mux.HandleFunc("POST /api/session/{code}/join", s.handleJoin)
	mux.HandleFunc("GET /ws/{code}", s.handleWS)
	return mux
}

type createRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode,omitempty"`
	AISeats  int    `json:"aiSeats,omitempty"`
	TeamMode bool   `json:"teamMode,omitempty"`
}

type joinRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode,omitempty"`
	Team     string `json:"team,omitempty"`
}

type seatResponse struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		httpError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.AISeats < 0 || req.AISeats >= engine.MaxSeats {
		httpError(w, http.StatusBadRequest, "bad ai seat count")
		return
	}

	playerID := uuid.NewString()
	sess, err := game.Create(r.Context(), s.Store, playerID, req.Name, game.CreateOptions{
		Passcode: req.Passcode,
		AISeats:  req.AISeats,
		TeamMode: req.TeamMode,
	})
	if err != nil {
		s.Log.WithError(err).Error("create session failed")
		httpError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	s.respondSeat(w, sess.Code, playerID)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		httpError(w, http.StatusBadRequest, "name required")
		return
	}

	playerID := uuid.NewString()
	sess := game.NewSession(code, s.Store)
	if _, err := sess.Join(r.Context(), playerID, req.Name, req.Passcode, req.Team); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httpError(w, http.StatusNotFound, "no such session")
		case errors.Is(err, engine.ErrNotAuthorized):
			httpError(w, http.StatusForbidden, "wrong passcode")
		case errors.Is(err, engine.ErrGameFull), errors.Is(err, engine.ErrGameAlreadyStarted):
			httpError(w, http.StatusConflict, err.Error())
		default:
			s.Log.WithError(err).WithField("game", code).Error("join failed")
			httpError(w, http.StatusInternalServerError, "could not join")
		}
		return
	}
	s.respondSeat(w, code, playerID)
}

func (s *Server) respondSeat(w http.ResponseWriter, code, playerID string) {
	token, err := auth.NewSessionToken(s.Secret, playerID, code)
	if err != nil {
		s.Log.WithError(err).Error("token signing failed")
		httpError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(seatResponse{Code: code, PlayerID: playerID, Token: token})
}

// actionMessage is one client request over the websocket.
type actionMessage struct {
	Action     string `json:"action"`
	PropertyID int    `json:"propertyId,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Option     string `json:"option,omitempty"`
}

// serverMessage is one gateway push: a document revision or an action error.
type serverMessage struct {
	Type  string               `json:"type"` // "state" or "error"
	State *engine.GameDocument `json:"state,omitempty"`
	Error string               `json:"error,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	playerID, tokenGame, err := auth.ParseSessionToken(s.Secret, r.URL.Query().Get("token"))
	if err != nil || tokenGame != code {
		httpError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.Log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection torn down")

	log := s.Log.WithFields(logrus.Fields{"game": code, "player": playerID})
	ctx := r.Context()

	updates, cancel, err := s.Store.Subscribe(ctx, code)
	if err != nil {
		log.WithError(err).Warn("subscribe failed")
		conn.Close(websocket.StatusPolicyViolation, "no such session")
		return
	}
	defer cancel()

	sess := game.NewSession(code, s.Store)

	// Every connected client runs a scheduler; the document lease elects
	// which one actually drives the automated players.
	sched := game.NewScheduler(sess, playerID)
	go func() { _ = sched.Run(ctx) }()

	// Writer: push every committed revision.
	go func() {
		for doc := range updates {
			if err := wsjson.Write(ctx, conn, serverMessage{Type: "state", State: doc}); err != nil {
				return
			}
		}
	}()

	log.Info("client connected")
	// Reader: apply actions until the client goes away.
	for {
		var msg actionMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			log.WithField("reason", err).Info("client disconnected")
			return
		}
		if err := s.dispatch(ctx, sess, playerID, msg); err != nil {
			// Validation failures go back to the acting client only; the
			// shared document is untouched.
			_ = wsjson.Write(ctx, conn, serverMessage{Type: "error", Error: err.Error()})
		}
	}
}

// dispatch maps a wire action onto the session's transactional operations.
func (s *Server) dispatch(ctx context.Context, sess *game.Session, playerID string, msg actionMessage) error {
	var err error
	switch msg.Action {
	case "begin":
		_, err = sess.Begin(ctx, playerID)
	case "pre-game-roll":
		_, err = sess.PreGameRoll(ctx, playerID)
	case "roll":
		_, err = sess.Roll(ctx, playerID)
	case "end-turn":
		_, err = sess.EndTurn(ctx, playerID)
	case "buy-property":
		_, err = sess.BuyProperty(ctx, playerID)
	case "develop-property":
		_, err = sess.DevelopProperty(ctx, playerID, msg.PropertyID, engine.DevelopmentKind(msg.Kind))
	case "settle-rent":
		_, err = sess.SettleRent(ctx, playerID)
	case "resolve-card":
		_, err = sess.ResolveCard(ctx, playerID)
	case "use-detention-option":
		_, err = sess.UseDetentionOption(ctx, playerID, engine.DetentionOption(msg.Option))
	case "propose-swap":
		_, err = sess.ProposeSwap(ctx, playerID, msg.PropertyID)
	case "resolve-swap":
		_, err = sess.ResolveSwap(ctx, playerID, msg.PropertyID)
	case "steal":
		_, err = sess.Steal(ctx, playerID, msg.PropertyID)
	default:
		err = fmt.Errorf("unknown action %q", msg.Action)
	}
	return err
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
