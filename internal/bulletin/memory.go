package bulletin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"gitlab.com/openqna/candour/internal/models"
)

// MemoryBoard is a hash-chained in-process Board. One mutex serializes every
// append and censor, which is the process-wide serialization point the write
// protocol assumes. Used in tests and in single-node deployments without an
// external board service.
type MemoryBoard struct {
	mu     sync.Mutex
	leaves map[models.HashValue]*memoryLeaf
	head   models.HashValue
	seq    uint64
	now    func() time.Time
}

type memoryLeaf struct {
	content   []byte
	timestamp time.Time
	censored  bool
}

func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{
		leaves: make(map[models.HashValue]*memoryLeaf),
		now:    time.Now,
	}
}

func (b *MemoryBoard) Append(ctx context.Context, entry []byte) (models.HashValue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	// The leaf hash covers the previous head and a sequence number, so
	// identical payloads still get distinct, chain-bound addresses.
	d := sha256.New()
	d.Write([]byte(b.head))
	d.Write([]byte(strconv.FormatUint(b.seq, 10)))
	d.Write(entry)
	hash := models.HashValue(hex.EncodeToString(d.Sum(nil)))

	content := make([]byte, len(entry))
	copy(content, entry)
	b.leaves[hash] = &memoryLeaf{content: content, timestamp: b.now()}
	b.head = hash
	return hash, nil
}

func (b *MemoryBoard) Fetch(ctx context.Context, leaf models.HashValue) (Leaf, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, ok := b.leaves[leaf]
	if !ok {
		return Leaf{}, ErrNoSuchLeaf
	}
	if l.censored {
		return Leaf{Timestamp: l.timestamp}, nil
	}
	content := make([]byte, len(l.content))
	copy(content, l.content)
	return Leaf{Content: content, Timestamp: l.timestamp}, nil
}

func (b *MemoryBoard) Censor(ctx context.Context, leaf models.HashValue) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, ok := b.leaves[leaf]
	if !ok {
		return ErrNoSuchLeaf
	}
	l.censored = true
	l.content = nil
	return nil
}
