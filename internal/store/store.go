// Package store persists one GameDocument per session and replicates every
// committed revision to subscribers. All writes go through Update, an atomic
// conditional read-modify-write: the mutation runs on a private copy of the
// latest revision and commits only if no other writer got there first.
package store

import (
	"context"
	"errors"

	"github.com/landlord-game/landlord/engine"
)

var (
	// ErrNotFound reports that no document exists under the session code.
	ErrNotFound = errors.New("store: game not found")
	// ErrConflict reports that Update exhausted its retries against
	// concurrent writers.
	ErrConflict = errors.New("store: too many concurrent updates")
)

// UpdateFunc mutates a private copy of the current document. Returning an
// error aborts the transaction; the stored document is untouched.
type UpdateFunc func(doc *engine.GameDocument) error

// Store is the document store contract. Implementations must guarantee that
// Update is atomic with respect to other Updates on the same id and that
// every committed revision reaches every live subscriber in commit order.
type Store interface {
	// Get returns a copy of the current document.
	Get(ctx context.Context, id string) (*engine.GameDocument, error)
	// Set unconditionally writes the document (used only at creation).
	Set(ctx context.Context, id string, doc *engine.GameDocument) error
	// Update applies fn transactionally and returns the committed document.
	Update(ctx context.Context, id string, fn UpdateFunc) (*engine.GameDocument, error)
	// Subscribe delivers the current document immediately, then every
	// subsequent commit. The returned cancel func releases the subscription.
	Subscribe(ctx context.Context, id string) (<-chan *engine.GameDocument, func(), error)
	// Delete removes the document and closes its subscriptions.
	Delete(ctx context.Context, id string) error
}

// clone deep-copies a document through its JSON form. Documents are small
// (one board, at most six players), so the round-trip is cheap relative to
// the network hop it sits next to.
func clone(doc *engine.GameDocument) (*engine.GameDocument, error) {
	b, err := encode(doc)
	if err != nil {
		return nil, err
	}
	return decode(b)
}
