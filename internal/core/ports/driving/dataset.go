// Package driving defines the interfaces through which callers drive the
// core (primary ports). The services package implements them.
package driving

import (
	"context"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

// SelectOptions tunes one SelectRows call.
type SelectOptions struct {
	// Filters are value predicates combined with logical AND. They are
	// evaluated against already-resident values only.
	Filters []domain.Filter

	// CombineColumns nests flat enrichment outputs back into row-shaped
	// Items before yielding.
	CombineColumns bool
}

// RowIterator is the lazy sequence produced by SelectRows. Nothing is
// evaluated until the caller pulls; abandoning the iterator mid-stream is
// safe and has no side effects.
type RowIterator interface {
	// Next advances to the next output row. Returns false at the end or
	// on error.
	Next() bool

	// Row returns the current output Item. Only valid after a true Next.
	Row() domain.Item

	// Err returns the error that terminated iteration, if any.
	Err() error

	// Close releases resources.
	Close() error
}

// Dataset is the query API surface over one stored row set.
type Dataset interface {
	// Schema returns the source schema merged with the declared output
	// fields of every materialized signal.
	Schema() (domain.Schema, error)

	// SelectRows filters rows, projects columns, applies ad-hoc signals,
	// and yields one output Item per surviving row, lazily. Planning-time
	// failures (unregistered signal, missing embedding) fail the call
	// before any row is produced.
	SelectRows(ctx context.Context, columns []domain.Column, opts SelectOptions) (RowIterator, error)

	// ComputeSignal materializes a signal's outputs at a path, making
	// them visible to filters, split and embedding dependency resolution,
	// and schema merging.
	ComputeSignal(ctx context.Context, signal domain.Signal, path domain.Path) error
}
