// Package database archives games and their action history in postgres.
// The live document lives in the store; postgres only sees the initial
// snapshot at start, the final snapshot at finish, and the drained
// historian queue.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/landlord-game/landlord/engine"
	"github.com/landlord-game/landlord/internal/cache"
)

// DB is the process-wide connection pool, set by Init. Nil when the server
// runs without an archive (local play).
var DB *pgxpool.Pool

// Init opens the pool and creates the schema if missing.
func Init(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("database: open pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("database: ping: %w", err)
	}
	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return err
	}
	DB = pool
	logrus.Info("postgres connected")
	return nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS games (
    code        TEXT PRIMARY KEY,
    created_at  BIGINT NOT NULL,
    finished_at BIGINT,
    winner      TEXT,
    winner_team TEXT,
    initial_doc JSONB NOT NULL,
    final_doc   JSONB
);
CREATE TABLE IF NOT EXISTS game_actions (
    id          BIGSERIAL PRIMARY KEY,
    game_code   TEXT NOT NULL,
    rev         BIGINT NOT NULL,
    actor_id    TEXT NOT NULL,
    action_type TEXT NOT NULL,
    payload     JSONB,
    ts          BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS game_actions_game_idx ON game_actions (game_code, rev);`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("database: ensure schema: %w", err)
	}
	return nil
}

// UpsertInitialGameState records the document as it stood when play began.
func UpsertInitialGameState(ctx context.Context, doc *engine.GameDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("database: marshal initial state: %w", err)
	}
	_, err = DB.Exec(ctx, `
INSERT INTO games (code, created_at, initial_doc) VALUES ($1, $2, $3)
ON CONFLICT (code) DO UPDATE SET initial_doc = EXCLUDED.initial_doc`,
		doc.Code, doc.CreatedAt, b)
	if err != nil {
		return fmt.Errorf("database: upsert initial state for %s: %w", doc.Code, err)
	}
	return nil
}

// StoreFinalGameState archives the finished document with its winner.
func StoreFinalGameState(ctx context.Context, doc *engine.GameDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("database: marshal final state: %w", err)
	}
	_, err = DB.Exec(ctx, `
UPDATE games SET finished_at = $2, winner = $3, winner_team = $4, final_doc = $5
WHERE code = $1`,
		doc.Code, doc.UpdatedAt, doc.Winner, doc.WinnerTeam, b)
	if err != nil {
		return fmt.Errorf("database: store final state for %s: %w", doc.Code, err)
	}
	return nil
}

// InsertGameAction writes one drained historian record.
func InsertGameAction(ctx context.Context, rec cache.GameActionRecord) error {
	_, err := DB.Exec(ctx, `
INSERT INTO game_actions (game_code, rev, actor_id, action_type, payload, ts)
VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.GameCode, rec.Rev, rec.ActorID, rec.ActionType, []byte(rec.Payload), rec.Timestamp)
	if err != nil {
		return fmt.Errorf("database: insert action for %s: %w", rec.GameCode, err)
	}
	return nil
}

// RunHistorian drains the redis action queue into postgres until ctx ends.
// A record that fails to insert is logged and dropped; the queue must not
// wedge on one bad row.
func RunHistorian(ctx context.Context) {
	log := logrus.WithField("component", "historian")
	log.Info("historian started")
	for {
		if ctx.Err() != nil {
			log.Info("historian stopped")
			return
		}
		rec, err := cache.NextGameAction(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("dequeue failed")
			time.Sleep(time.Second)
			continue
		}
		if rec == nil {
			continue // timeout, poll again
		}
		if err := InsertGameAction(ctx, *rec); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"game": rec.GameCode,
				"rev":  rec.Rev,
			}).Error("dropping action record")
		}
	}
}
