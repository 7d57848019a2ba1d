package driven

import (
	"context"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

// VectorStore stores embedding vectors keyed by signal name and VectorKey.
// Callers must not assume contiguity or any storage layout; batching
// multiple keys per Get call is the only performance contract, and output
// order matches input order.
type VectorStore interface {
	// Get retrieves one vector per key for the named embedding signal,
	// same order and length as keys. A missing key fails with
	// domain.ErrNotFound identifying the key.
	Get(ctx context.Context, signalName string, keys []domain.VectorKey) ([][]float32, error)

	// Has reports whether the named embedding signal has vectors
	// materialized anywhere under the (possibly wildcarded) path.
	Has(signalName string, path domain.Path) bool

	// Put stores one vector for the named embedding signal.
	Put(ctx context.Context, signalName string, key domain.VectorKey, vector []float32) error
}

// EmbeddingService generates vector embeddings from text. Optional: only
// needed when an embedding-producer signal is backed by an external model.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
