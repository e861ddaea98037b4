// Package cache owns the shared redis client and the action historian queue.
// Every committed game action is pushed onto a redis list; a drain worker
// moves batches into postgres so the hot path never waits on the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rdb is the process-wide redis client, set by Init. Packages that can run
// without redis (tests, local play on the memory store) check it for nil.
var Rdb *redis.Client

// actionQueueKey is the historian list. Producers RPUSH, the drain worker
// BLPOPs, so records leave in arrival order.
const actionQueueKey = "historian:actions"

// Init connects the shared client and verifies the connection with a ping.
func Init(ctx context.Context, addr, password string) error {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("cache: connect redis at %s: %w", addr, err)
	}
	Rdb = client
	logrus.WithField("addr", addr).Info("redis connected")
	return nil
}

// GameActionRecord is one historian entry: who did what to which game, in
// commit order. Rev ties the record to the document revision it produced.
type GameActionRecord struct {
	GameCode   string          `json:"gameCode"`
	Rev        int64           `json:"rev"`
	ActorID    string          `json:"actorId"`
	ActionType string          `json:"actionType"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

// PublishGameAction queues a record for the drain worker.
func PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	if Rdb == nil {
		return errors.New("cache: redis client not initialized")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache: marshal action record: %w", err)
	}
	return Rdb.RPush(ctx, actionQueueKey, b).Err()
}

// NextGameAction blocks up to timeout for the oldest queued record.
// Returns (nil, nil) on timeout.
func NextGameAction(ctx context.Context, timeout time.Duration) (*GameActionRecord, error) {
	if Rdb == nil {
		return nil, errors.New("cache: redis client not initialized")
	}
	res, err := Rdb.BLPop(ctx, timeout, actionQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BLPOP returns [key, value].
	var rec GameActionRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return nil, fmt.Errorf("cache: unmarshal action record: %w", err)
	}
	return &rec, nil
}
