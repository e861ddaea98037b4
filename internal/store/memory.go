package store

import (
	"context"
	"sync"

	"github.com/landlord-game/landlord/engine"
)

// Memory is a process-local Store for tests and single-node play. Revisions
// are checked under one mutex, which makes Update strictly serializable; the
// retry loop exists only to mirror the redis implementation's contract.
type Memory struct {
	mu   sync.Mutex
	docs map[string]*engine.GameDocument
	subs map[string][]chan *engine.GameDocument
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]*engine.GameDocument),
		subs: make(map[string][]chan *engine.GameDocument),
	}
}

func (m *Memory) Get(ctx context.Context, id string) (*engine.GameDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc)
}

func (m *Memory) Set(ctx context.Context, id string, doc *engine.GameDocument) error {
	cp, err := clone(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[id] = cp
	m.notifyLocked(id, cp)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Update(ctx context.Context, id string, fn UpdateFunc) (*engine.GameDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	work, err := clone(cur)
	if err != nil {
		return nil, err
	}
	if err := fn(work); err != nil {
		return nil, err
	}
	work.Rev = cur.Rev + 1
	m.docs[id] = work

	out, err := clone(work)
	if err != nil {
		return nil, err
	}
	m.notifyLocked(id, work)
	return out, nil
}

func (m *Memory) Subscribe(ctx context.Context, id string) (<-chan *engine.GameDocument, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.docs[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	first, err := clone(cur)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan *engine.GameDocument, 16)
	ch <- first
	m.subs[id] = append(m.subs[id], ch)

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.subs[id]
		for i, c := range subs {
			if c == ch {
				m.subs[id] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	for _, ch := range m.subs[id] {
		close(ch)
	}
	delete(m.subs, id)
	return nil
}

// notifyLocked fans the committed revision out to subscribers. A subscriber
// that has fallen a full buffer behind loses intermediate revisions rather
// than blocking the committer; it will catch up on the next commit.
func (m *Memory) notifyLocked(id string, doc *engine.GameDocument) {
	for _, ch := range m.subs[id] {
		cp, err := clone(doc)
		if err != nil {
			continue
		}
		select {
		case ch <- cp:
		default:
		}
	}
}
