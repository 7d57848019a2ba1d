// Package memory provides in-memory implementations of the storage
// ports, used by tests and by sessions over ad-hoc row sets.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driven"
)

// Ensure RowStore implements the interface.
var _ driven.RowStore = (*RowStore)(nil)

// RowStore holds rows and materialized signal outputs in memory.
// Row order is insertion order and is stable across scans.
type RowStore struct {
	mu      sync.RWMutex
	schema  domain.Schema
	rows    []domain.Item
	outputs map[string]map[string]domain.Item // signal ref key -> row id -> tree
	refs    []driven.SignalRef
}

// NewRowStore ingests row Items. Rows lacking the reserved row-id key are
// assigned a fresh UUID; the schema is inferred from the first row when
// none is given. The ingested rows are deep-copied so callers cannot
// mutate stored state.
func NewRowStore(rows []domain.Item, schema *domain.Schema) *RowStore {
	stored := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		copied := domain.CopyItem(row)
		if m, ok := copied.(map[string]any); ok {
			if _, has := m[domain.RowIDKey]; !has {
				m[domain.RowIDKey] = uuid.NewString()
			}
		}
		stored = append(stored, copied)
	}

	var s domain.Schema
	switch {
	case schema != nil:
		s = *schema
	case len(stored) > 0:
		s = domain.InferSchema(stored[0])
	default:
		s = domain.Schema{Fields: map[string]domain.Field{}}
	}

	return &RowStore{
		schema:  s,
		rows:    stored,
		outputs: make(map[string]map[string]domain.Item),
	}
}

// Schema returns the source schema.
func (s *RowStore) Schema() domain.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema
}

// Scan streams rows in insertion order over a snapshot taken at call
// time.
func (s *RowStore) Scan(_ context.Context) (driven.RowCursor, error) {
	s.mu.RLock()
	snapshot := make([]domain.Item, len(s.rows))
	copy(snapshot, s.rows)
	s.mu.RUnlock()
	return &rowCursor{rows: snapshot, pos: -1}, nil
}

func refKey(signalName string, path domain.Path) string {
	return signalName + "(" + path.String() + ")"
}

// SignalOutput fetches one row's materialized output tree.
func (s *RowStore) SignalOutput(_ context.Context, rowID, signalName string, path domain.Path) (domain.Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byRow, ok := s.outputs[refKey(signalName, path)]
	if !ok {
		return nil, false, nil
	}
	tree, ok := byRow[rowID]
	if !ok {
		return nil, false, nil
	}
	return domain.CopyItem(tree), true, nil
}

// PutSignalOutput persists one row's output tree.
func (s *RowStore) PutSignalOutput(_ context.Context, rowID, signalName string, path domain.Path, output domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := refKey(signalName, path)
	byRow, ok := s.outputs[key]
	if !ok {
		byRow = make(map[string]domain.Item)
		s.outputs[key] = byRow
		s.refs = append(s.refs, driven.SignalRef{Name: signalName, Path: append(domain.Path{}, path...)})
	}
	byRow[rowID] = domain.CopyItem(output)
	return nil
}

// HasSignal reports whether any output is materialized for the signal at
// the path.
func (s *RowStore) HasSignal(signalName string, path domain.Path) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.outputs[refKey(signalName, path)]
	return ok
}

// Signals enumerates materialized signal outputs in materialization
// order.
func (s *RowStore) Signals() []driven.SignalRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]driven.SignalRef, len(s.refs))
	copy(refs, s.refs)
	return refs
}

// rowCursor iterates a row snapshot. Row returns a deep copy so query
// evaluation can never mutate stored rows.
type rowCursor struct {
	rows []domain.Item
	pos  int
}

func (c *rowCursor) Next() bool {
	if c.pos+1 >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *rowCursor) Row() domain.Item {
	return domain.CopyItem(c.rows[c.pos])
}

func (c *rowCursor) Err() error { return nil }

func (c *rowCursor) Close() error { return nil }
