package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/landlord-game/landlord/engine"
)

// Redis stores each document as JSON under game:{id} and publishes every
// committed revision on game:{id}:updates. Update rides go-redis WATCH: the
// key is watched, the mutation runs on the read copy, and the MULTI/EXEC
// commit fails if any other writer touched the key in between.
type Redis struct {
	rdb     *redis.Client
	retries int
}

// NewRedis wraps an already-connected client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, retries: 16}
}

func gameKey(id string) string    { return "game:" + id }
func updatesKey(id string) string { return "game:" + id + ":updates" }

func (r *Redis) Get(ctx context.Context, id string) (*engine.GameDocument, error) {
	b, err := r.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(b)
}

func (r *Redis) Set(ctx context.Context, id string, doc *engine.GameDocument) error {
	b, err := encode(doc)
	if err != nil {
		return err
	}
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, gameKey(id), b, 0)
	pipe.Publish(ctx, updatesKey(id), b)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) Update(ctx context.Context, id string, fn UpdateFunc) (*engine.GameDocument, error) {
	var committed *engine.GameDocument

	txn := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, gameKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		doc, err := decode(b)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		doc.Rev++

		out, err := encode(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameKey(id), out, 0)
			pipe.Publish(ctx, updatesKey(id), out)
			return nil
		})
		if err != nil {
			return err
		}
		committed = doc
		return nil
	}

	for attempt := 0; attempt < r.retries; attempt++ {
		err := r.rdb.Watch(ctx, txn, gameKey(id))
		if errors.Is(err, redis.TxFailedErr) {
			continue // another writer won the race; re-read and retry
		}
		if err != nil {
			return nil, err
		}
		return committed, nil
	}
	return nil, ErrConflict
}

func (r *Redis) Subscribe(ctx context.Context, id string) (<-chan *engine.GameDocument, func(), error) {
	first, err := r.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	pubsub := r.rdb.Subscribe(ctx, updatesKey(id))
	// Force the SUBSCRIBE round-trip so a failure surfaces here, not on the
	// first missed message.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	ch := make(chan *engine.GameDocument, 16)
	ch <- first

	go func() {
		defer close(ch)
		for msg := range pubsub.Channel() {
			doc, err := decode([]byte(msg.Payload))
			if err != nil {
				logrus.WithError(err).WithField("game", id).Warn("dropping undecodable update")
				continue
			}
			select {
			case ch <- doc:
			default:
				// Slow subscriber: drop this revision, the next commit
				// carries the full document anyway.
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return ch, cancel, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, gameKey(id)).Err()
}
