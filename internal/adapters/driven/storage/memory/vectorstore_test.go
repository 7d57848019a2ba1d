package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

func TestVectorStorePutAndGet(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	k1 := domain.VectorKey{RowID: "1", Path: domain.ParsePath("text")}
	k2 := domain.VectorKey{RowID: "2", Path: domain.ParsePath("text")}
	require.NoError(t, store.Put(ctx, "emb", k1, []float32{1, 0}))
	require.NoError(t, store.Put(ctx, "emb", k2, []float32{0, 1}))

	// Results follow key order, not insertion order.
	got, err := store.Get(ctx, "emb", []domain.VectorKey{k2, k1})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 0}}, got)
}

func TestVectorStoreGetMissingKey(t *testing.T) {
	store := NewVectorStore()
	_, err := store.Get(context.Background(), "emb", []domain.VectorKey{
		{RowID: "1", Path: domain.ParsePath("text")},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorStorePutOverwrites(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	key := domain.VectorKey{RowID: "1", Path: domain.ParsePath("text")}

	require.NoError(t, store.Put(ctx, "emb", key, []float32{1}))
	require.NoError(t, store.Put(ctx, "emb", key, []float32{2}))

	got, err := store.Get(ctx, "emb", []domain.VectorKey{key})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2}}, got)
}

func TestVectorStoreHasMatchesWildcards(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	key := domain.VectorKey{RowID: "1", Path: domain.Path{"text", "0"}}
	require.NoError(t, store.Put(ctx, "emb", key, []float32{1}))

	assert.True(t, store.Has("emb", domain.ParsePath("text.*")))
	assert.False(t, store.Has("emb", domain.ParsePath("text")))
	assert.False(t, store.Has("emb", domain.ParsePath("other.*")))
	assert.False(t, store.Has("other", domain.ParsePath("text.*")))
}

func TestVectorStoreStoresCopies(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	key := domain.VectorKey{RowID: "1", Path: domain.ParsePath("text")}

	vec := []float32{1, 2}
	require.NoError(t, store.Put(ctx, "emb", key, vec))
	vec[0] = 9

	got, err := store.Get(ctx, "emb", []domain.VectorKey{key})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}}, got)
}
