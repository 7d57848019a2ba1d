package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreIngestAndScan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.IngestRows(ctx, []domain.Item{
		map[string]any{domain.RowIDKey: "1", "text": "hello"},
		map[string]any{domain.RowIDKey: "2", "text": "bye"},
	}, nil))

	cursor, err := store.Scan(ctx)
	require.NoError(t, err)
	defer cursor.Close()

	var rows []domain.Item
	for cursor.Next() {
		rows = append(rows, cursor.Row())
	}
	require.NoError(t, cursor.Err())

	assert.Equal(t, []domain.Item{
		map[string]any{domain.RowIDKey: "1", "text": "hello"},
		map[string]any{domain.RowIDKey: "2", "text": "bye"},
	}, rows)
}

func TestStoreAssignsRowIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.IngestRows(ctx, []domain.Item{
		map[string]any{"text": "hello"},
	}, nil))

	cursor, err := store.Scan(ctx)
	require.NoError(t, err)
	defer cursor.Close()

	require.True(t, cursor.Next())
	assert.NotEmpty(t, domain.RowID(cursor.Row()))
}

func TestStorePersistsSchema(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.IngestRows(ctx, []domain.Item{
		map[string]any{"text": "hello", "tags": []any{"a"}},
	}, nil))

	schema := store.Schema()
	assert.Equal(t, domain.DTypeString, schema.Fields["text"].DType)
	require.NotNil(t, schema.Fields["tags"].Repeated)
	assert.Equal(t, domain.DTypeString, schema.Fields["tags"].Repeated.DType)
}

func TestStoreSchemaEmptyBeforeIngest(t *testing.T) {
	store := newTestStore(t)
	assert.Empty(t, store.Schema().Fields)
}

func TestStoreSignalOutputs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	path := domain.ParsePath("text")

	assert.False(t, store.HasSignal("stats", path))

	require.NoError(t, store.PutSignalOutput(ctx, "1", "stats", path, map[string]any{"len": 5}))

	assert.True(t, store.HasSignal("stats", path))
	got, ok, err := store.SignalOutput(ctx, "1", "stats", path)
	require.NoError(t, err)
	require.True(t, ok)
	// JSON round-trip yields float64 numbers.
	assert.Equal(t, map[string]any{"len": 5.0}, got)

	_, ok, err = store.SignalOutput(ctx, "9", "stats", path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreSignalOutputUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	path := domain.ParsePath("text")

	require.NoError(t, store.PutSignalOutput(ctx, "1", "stats", path, map[string]any{"len": 1.0}))
	require.NoError(t, store.PutSignalOutput(ctx, "1", "stats", path, map[string]any{"len": 2.0}))

	got, ok, err := store.SignalOutput(ctx, "1", "stats", path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"len": 2.0}, got)
}

func TestStoreSignalsEnumeration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSignalOutput(ctx, "1", "splitter", domain.ParsePath("text"), []any{}))
	require.NoError(t, store.PutSignalOutput(ctx, "2", "splitter", domain.ParsePath("text"), []any{}))
	require.NoError(t, store.PutSignalOutput(ctx, "1", "stats", domain.ParsePath("title"), map[string]any{}))

	refs := store.Signals()
	require.Len(t, refs, 2)
	assert.Equal(t, "splitter", refs[0].Name)
	assert.True(t, refs[0].Path.Equal(domain.ParsePath("text")))
	assert.Equal(t, "stats", refs[1].Name)
}

func TestStoreVectorRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := domain.VectorKey{RowID: "1", Path: domain.Path{"text", "0"}}

	require.NoError(t, store.Put(ctx, "emb", key, []float32{1.5, -2, 0.25}))

	got, err := store.Get(ctx, "emb", []domain.VectorKey{key})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1.5, -2, 0.25}}, got)
}

func TestStoreVectorMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "emb", []domain.VectorKey{
		{RowID: "1", Path: domain.ParsePath("text")},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreVectorHasMatchesWildcards(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := domain.VectorKey{RowID: "1", Path: domain.Path{"text", "0"}}
	require.NoError(t, store.Put(ctx, "emb", key, []float32{1}))

	assert.True(t, store.Has("emb", domain.ParsePath("text.*")))
	assert.False(t, store.Has("emb", domain.ParsePath("text")))
	assert.False(t, store.Has("other", domain.ParsePath("text.*")))
}

func TestEncodeDecodeVector(t *testing.T) {
	vec := []float32{0, 1, -1, 3.14159}
	assert.Equal(t, vec, decodeVector(encodeVector(vec)))
	assert.Empty(t, decodeVector(nil))
}
