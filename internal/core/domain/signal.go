package domain

import "context"

// Signal is a named computation unit mapped over the values at a path.
// Every signal implements the base evaluation; splitter, embedding and
// split-consumer behaviours are optional capabilities queried via
// interface assertion, never inheritance.
type Signal interface {
	// Name uniquely identifies the signal. It is used for registry lookup
	// and for output key derivation.
	Name() string

	// Fields declares the shape of one output value.
	Fields() Field

	// Compute produces one output Item (or nil for absence) per input
	// value, in input order, same length.
	Compute(values []Item) ([]Item, error)
}

// Constructor creates a fresh signal instance. Registered per name in a
// session's signal registry.
type Constructor func() Signal

// Splitter is an optional capability: the signal decomposes a string into
// ordered character-offset spans.
type Splitter interface {
	Signal

	// Split produces the spans for one input string.
	Split(text string) ([]Span, error)
}

// Embedder is an optional capability: the signal's outputs are embedding
// vectors, persisted to the vector store rather than inline in rows.
type Embedder interface {
	Signal

	// Embed produces one vector per input text.
	Embed(texts []string) ([][]float32, error)
}

// VectorKey identifies one stored embedding vector: the owning row plus
// the fully-resolved concrete path at which the embedding was produced.
type VectorKey struct {
	RowID string
	Path  Path
}

// String renders the key for diagnostics and storage addressing.
func (k VectorKey) String() string {
	return k.RowID + ":" + k.Path.String()
}

// VectorReader retrieves stored vectors. The returned slice has the same
// order and length as keys; a missing key fails with ErrNotFound.
type VectorReader interface {
	Get(ctx context.Context, keys []VectorKey) ([][]float32, error)
}

// EmbeddingConsumer is an optional capability: instead of raw values the
// signal receives vector keys and reads vectors from the store. It never
// re-embeds text itself.
type EmbeddingConsumer interface {
	Signal

	// EmbeddingName names the precomputed embedding signal this signal
	// reads from.
	EmbeddingName() string

	// ComputeFromVectors produces one output per key, reading vectors
	// from the store in batches.
	ComputeFromVectors(ctx context.Context, keys []VectorKey, vectors VectorReader) ([]Item, error)
}

// SplitConsumer is an optional capability: the signal evaluates once per
// span of a precomputed splitter instead of once per whole-field value.
type SplitConsumer interface {
	Signal

	// SplitName names the precomputed splitter signal whose spans the
	// outputs annotate. Empty disables split evaluation.
	SplitName() string
}

// CallCounter is an optional instrumentation hook. The engine never reads
// it; tests use it to assert evaluation counts.
type CallCounter interface {
	CallCount() int
}
