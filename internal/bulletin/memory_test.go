package bulletin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryBoard(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	b := NewMemoryBoard()

	h1, err := b.Append(ctx, []byte("first"))
	require.NoError(err)
	h2, err := b.Append(ctx, []byte("second"))
	require.NoError(err)
	require.NotEqual(h1, h2)

	// Identical payloads still get distinct addresses.
	h3, err := b.Append(ctx, []byte("first"))
	require.NoError(err)
	require.NotEqual(h1, h3)

	leaf, err := b.Fetch(ctx, h1)
	require.NoError(err)
	require.Equal([]byte("first"), leaf.Content)
	require.False(leaf.Timestamp.IsZero())

	_, err = b.Fetch(ctx, "deadbeef")
	require.ErrorIs(err, ErrNoSuchLeaf)
}

func TestMemoryBoardCensor(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	b := NewMemoryBoard()

	h, err := b.Append(ctx, []byte("sensitive"))
	require.NoError(err)
	require.NoError(b.Censor(ctx, h))

	// The leaf stays addressable, content is gone.
	leaf, err := b.Fetch(ctx, h)
	require.NoError(err)
	require.Nil(leaf.Content)
	require.False(leaf.Timestamp.IsZero())

	// Censoring again is idempotent.
	require.NoError(b.Censor(ctx, h))
	require.ErrorIs(b.Censor(ctx, "deadbeef"), ErrNoSuchLeaf)
}
