package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

func scanAll(t *testing.T, s *RowStore) []domain.Item {
	t.Helper()
	cursor, err := s.Scan(context.Background())
	require.NoError(t, err)
	defer cursor.Close()

	var rows []domain.Item
	for cursor.Next() {
		rows = append(rows, cursor.Row())
	}
	require.NoError(t, cursor.Err())
	return rows
}

func TestRowStoreAssignsRowIDs(t *testing.T) {
	store := NewRowStore([]domain.Item{
		map[string]any{"text": "hello"},
		map[string]any{domain.RowIDKey: "fixed", "text": "bye"},
	}, nil)

	rows := scanAll(t, store)
	require.Len(t, rows, 2)

	first := domain.RowID(rows[0])
	assert.NotEmpty(t, first)
	assert.Equal(t, "fixed", domain.RowID(rows[1]))
}

func TestRowStoreScanOrderIsStable(t *testing.T) {
	store := NewRowStore([]domain.Item{
		map[string]any{domain.RowIDKey: "1", "text": "a"},
		map[string]any{domain.RowIDKey: "2", "text": "b"},
		map[string]any{domain.RowIDKey: "3", "text": "c"},
	}, nil)

	first := scanAll(t, store)
	second := scanAll(t, store)
	assert.Equal(t, first, second)
	assert.Equal(t, "1", domain.RowID(first[0]))
	assert.Equal(t, "3", domain.RowID(first[2]))
}

func TestRowStoreCursorRowsAreCopies(t *testing.T) {
	store := NewRowStore([]domain.Item{
		map[string]any{domain.RowIDKey: "1", "meta": map[string]any{"lang": "en"}},
	}, nil)

	rows := scanAll(t, store)
	rows[0].(map[string]any)["meta"].(map[string]any)["lang"] = "de"

	again := scanAll(t, store)
	assert.Equal(t, "en", again[0].(map[string]any)["meta"].(map[string]any)["lang"])
}

func TestRowStoreInfersSchema(t *testing.T) {
	store := NewRowStore([]domain.Item{
		map[string]any{"text": "hello", "n": 3},
	}, nil)

	schema := store.Schema()
	assert.Equal(t, domain.DTypeString, schema.Fields["text"].DType)
	assert.Equal(t, domain.DTypeInt, schema.Fields["n"].DType)
}

func TestRowStoreExplicitSchemaWins(t *testing.T) {
	declared := domain.Schema{Fields: map[string]domain.Field{
		"text": {DType: domain.DTypeString},
	}}
	store := NewRowStore([]domain.Item{
		map[string]any{"text": "hello", "extra": 1},
	}, &declared)

	assert.Equal(t, declared, store.Schema())
}

func TestRowStoreSignalOutputs(t *testing.T) {
	store := NewRowStore([]domain.Item{
		map[string]any{domain.RowIDKey: "1", "text": "hello"},
	}, nil)
	path := domain.ParsePath("text")

	assert.False(t, store.HasSignal("test_signal", path))
	_, ok, err := store.SignalOutput(context.Background(), "1", "test_signal", path)
	require.NoError(t, err)
	assert.False(t, ok)

	output := map[string]any{"len": 5}
	require.NoError(t, store.PutSignalOutput(context.Background(), "1", "test_signal", path, output))

	assert.True(t, store.HasSignal("test_signal", path))
	assert.False(t, store.HasSignal("test_signal", domain.ParsePath("other")))

	got, ok, err := store.SignalOutput(context.Background(), "1", "test_signal", path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, output, got)

	// Unknown row id.
	_, ok, err = store.SignalOutput(context.Background(), "9", "test_signal", path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRowStoreSignalsEnumeration(t *testing.T) {
	store := NewRowStore([]domain.Item{
		map[string]any{domain.RowIDKey: "1", "text": "hello"},
	}, nil)

	require.NoError(t, store.PutSignalOutput(context.Background(), "1", "splitter", domain.ParsePath("text"), []any{}))
	require.NoError(t, store.PutSignalOutput(context.Background(), "1", "stats", domain.ParsePath("text"), map[string]any{}))
	// A second row's output for the same ref adds no duplicate.
	require.NoError(t, store.PutSignalOutput(context.Background(), "1", "splitter", domain.ParsePath("text"), []any{}))

	refs := store.Signals()
	require.Len(t, refs, 2)
	assert.Equal(t, "splitter", refs[0].Name)
	assert.Equal(t, "stats", refs[1].Name)
	assert.True(t, refs[0].Path.Equal(domain.ParsePath("text")))
}
