// Package bulletin is the client side of the append-only, hash-addressed
// audit log. The board's Merkle internals, proofs and journal recovery live
// in the board service; this package only carries the small contract the
// ledger protocol needs, an in-process implementation of it, and an HTTP
// client for an external board.
package bulletin

import (
	"context"
	"errors"
	"time"

	"gitlab.com/openqna/candour/internal/models"
)

var (
	ErrNoSuchLeaf  = errors.New("no such bulletin board leaf")
	ErrUnavailable = errors.New("bulletin board unavailable")
)

// Leaf is the fetched view of one entry. Content is nil when the leaf has
// been censored; its hash identity and timestamp remain addressable.
type Leaf struct {
	Content   []byte    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Board is the injected audit log capability. Implementations must make
// Append and Censor atomic with respect to each other; callers treat the
// whole board as one serialized resource.
type Board interface {
	// Append publishes an entry and returns its leaf hash. An error means
	// nothing was published; the caller must retry, not drop the entry.
	Append(ctx context.Context, entry []byte) (models.HashValue, error)
	// Fetch returns a leaf by hash. A nil Content means the leaf was
	// censored.
	Fetch(ctx context.Context, leaf models.HashValue) (Leaf, error)
	// Censor nulls a leaf's content in place. Idempotent. Only ever called
	// after the corresponding censor entry has been durably appended and
	// committed.
	Censor(ctx context.Context, leaf models.HashValue) error
}
