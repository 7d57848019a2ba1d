package signals

import (
	"context"
	"fmt"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driven"
)

// Ensure ModelEmbedding implements the embedder capability.
var _ domain.Embedder = (*ModelEmbedding)(nil)

// ModelEmbedding is an embedding-producer signal backed by an external
// embedding service. Its vectors persist to the vector store; it never
// returns them inline in rows.
type ModelEmbedding struct {
	name string
	svc  driven.EmbeddingService
}

// NewModelEmbedding creates an embedding signal. The name identifies the
// embedding in the vector store and in downstream consumer lookups.
func NewModelEmbedding(name string, svc driven.EmbeddingService) *ModelEmbedding {
	return &ModelEmbedding{name: name, svc: svc}
}

// Name implements domain.Signal.
func (s *ModelEmbedding) Name() string { return s.name }

// Fields implements domain.Signal.
func (s *ModelEmbedding) Fields() domain.Field {
	return domain.Field{DType: domain.DTypeEmbedding}
}

// Compute returns the vectors as Items. Materialization goes through
// Embed; Compute exists to satisfy the base contract for ad-hoc use.
func (s *ModelEmbedding) Compute(values []domain.Item) ([]domain.Item, error) {
	texts, err := asTexts(values)
	if err != nil {
		return nil, err
	}
	vectors, err := s.Embed(texts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Item, len(vectors))
	for i, v := range vectors {
		out[i] = v
	}
	return out, nil
}

// Embed implements domain.Embedder.
func (s *ModelEmbedding) Embed(texts []string) ([][]float32, error) {
	vectors, err := s.svc.EmbedBatch(context.Background(), texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts with %s: %w", len(texts), s.svc.ModelName(), err)
	}
	return vectors, nil
}

func asTexts(values []domain.Item) ([]string, error) {
	texts := make([]string, len(values))
	for i, v := range values {
		text, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected text to be a string, got %T: %w", v, domain.ErrInvalidInput)
		}
		texts[i] = text
	}
	return texts, nil
}
