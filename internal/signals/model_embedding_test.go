package signals

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

type mockEmbeddingService struct {
	vectors map[string][]float32
	err     error
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vectors[text], nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vectors[text]
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int { return 2 }

func (m *mockEmbeddingService) ModelName() string { return "mock-model" }

func (m *mockEmbeddingService) Close() error { return nil }

func TestModelEmbeddingEmbed(t *testing.T) {
	svc := &mockEmbeddingService{vectors: map[string][]float32{
		"hello": {1, 0},
		"bye":   {0, 1},
	}}
	sig := NewModelEmbedding("mock_embedding", svc)

	assert.Equal(t, "mock_embedding", sig.Name())
	assert.Equal(t, domain.DTypeEmbedding, sig.Fields().DType)

	vectors, err := sig.Embed([]string{"hello", "bye"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
}

func TestModelEmbeddingServiceError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	sig := NewModelEmbedding("mock_embedding", &mockEmbeddingService{err: wantErr})

	_, err := sig.Embed([]string{"hello"})
	assert.ErrorIs(t, err, wantErr)
}

func TestModelEmbeddingComputeRejectsNonString(t *testing.T) {
	sig := NewModelEmbedding("mock_embedding", &mockEmbeddingService{})

	_, err := sig.Compute([]domain.Item{42})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
