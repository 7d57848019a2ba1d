package driven

import (
	"context"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

// RowCursor streams row Items one at a time. The pattern follows
// database/sql: call Next, read Row, check Err after the loop.
// Abandoning a cursor mid-iteration is safe; Close releases resources.
type RowCursor interface {
	// Next advances to the next row. Returns false at the end of the
	// stream or on error.
	Next() bool

	// Row returns the current row Item. Only valid after a true Next.
	Row() domain.Item

	// Err returns the error that terminated iteration, if any.
	Err() error

	// Close releases cursor resources.
	Close() error
}

// SignalRef identifies one materialized signal output: the signal name and
// the (possibly wildcarded) path it was computed over.
type SignalRef struct {
	Name string
	Path domain.Path
}

// RowStore provides scan access to stored rows and to previously
// materialized signal outputs. Stored rows are immutable for the duration
// of a query; the engine only reads.
type RowStore interface {
	// Schema returns the source schema of the stored rows.
	Schema() domain.Schema

	// Scan streams rows lazily in storage order.
	Scan(ctx context.Context) (RowCursor, error)

	// SignalOutput fetches the materialized output of a signal at a path
	// for one row. The returned tree mirrors the path's wildcard fan-out.
	// Returns false when nothing is materialized for that signal and path.
	SignalOutput(ctx context.Context, rowID, signalName string, path domain.Path) (domain.Item, bool, error)

	// PutSignalOutput persists one row's output for a signal at a path.
	PutSignalOutput(ctx context.Context, rowID, signalName string, path domain.Path, output domain.Item) error

	// HasSignal reports whether outputs of the named signal are
	// materialized at the path.
	HasSignal(signalName string, path domain.Path) bool

	// Signals enumerates all materialized signal outputs, for schema
	// merging.
	Signals() []SignalRef
}
