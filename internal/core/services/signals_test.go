package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

// Test signals shared by the executor and materialization tests.

// lengthSignal produces the character count of each input string. It
// counts invocations per value for lazy-evaluation assertions and can be
// attached on top of a precomputed splitter.
type lengthSignal struct {
	split string
	calls int
}

var (
	_ domain.SplitConsumer = (*lengthSignal)(nil)
	_ domain.CallCounter   = (*lengthSignal)(nil)
)

func (s *lengthSignal) Name() string { return "length_signal" }

func (s *lengthSignal) Fields() domain.Field { return domain.Field{DType: domain.DTypeInt} }

func (s *lengthSignal) SplitName() string { return s.split }

func (s *lengthSignal) CallCount() int { return s.calls }

func (s *lengthSignal) Compute(values []domain.Item) ([]domain.Item, error) {
	out := make([]domain.Item, len(values))
	for i, v := range values {
		s.calls++
		text, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected text to be a string, got %T: %w", v, domain.ErrInvalidInput)
		}
		out[i] = len(text)
	}
	return out, nil
}

// statsSignal produces a mapping of an int and a float per input string.
type statsSignal struct{}

func (s *statsSignal) Name() string { return "test_signal" }

func (s *statsSignal) Fields() domain.Field {
	return domain.Field{Fields: map[string]domain.Field{
		"len":  {DType: domain.DTypeInt},
		"flen": {DType: domain.DTypeFloat},
	}}
}

func (s *statsSignal) Compute(values []domain.Item) ([]domain.Item, error) {
	out := make([]domain.Item, len(values))
	for i, v := range values {
		text, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected text to be a string, got %T: %w", v, domain.ErrInvalidInput)
		}
		out[i] = map[string]any{"len": len(text), "flen": float64(len(text))}
	}
	return out, nil
}

// testEmbeddings are the fixture vectors shared by embedding tests.
var testEmbeddings = map[string][]float32{
	"hello.":        {1, 0, 0},
	"hello2.":       {1, 1, 0},
	"hello world.":  {1, 1, 1},
	"hello world2.": {2, 1, 1},
}

// testEmbedding is an embedding-producer signal over the fixture table.
type testEmbedding struct{}

var _ domain.Embedder = (*testEmbedding)(nil)

func (s *testEmbedding) Name() string { return "test_embedding" }

func (s *testEmbedding) Fields() domain.Field { return domain.Field{DType: domain.DTypeEmbedding} }

func (s *testEmbedding) Compute(values []domain.Item) ([]domain.Item, error) {
	out := make([]domain.Item, len(values))
	for i, v := range values {
		out[i] = testEmbeddings[v.(string)]
	}
	return out, nil
}

func (s *testEmbedding) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := testEmbeddings[text]
		if !ok {
			return nil, fmt.Errorf("no fixture embedding for %q: %w", text, domain.ErrNotFound)
		}
		out[i] = vec
	}
	return out, nil
}

// embeddingSumSignal sums each embedding vector into one float.
type embeddingSumSignal struct{}

var _ domain.EmbeddingConsumer = (*embeddingSumSignal)(nil)

func (s *embeddingSumSignal) Name() string { return "test_embedding_sum" }

func (s *embeddingSumSignal) Fields() domain.Field { return domain.Field{DType: domain.DTypeFloat} }

func (s *embeddingSumSignal) EmbeddingName() string { return "test_embedding" }

func (s *embeddingSumSignal) Compute([]domain.Item) ([]domain.Item, error) {
	return nil, fmt.Errorf("embedding consumer computes from vectors: %w", domain.ErrInvalidInput)
}

func (s *embeddingSumSignal) ComputeFromVectors(ctx context.Context, keys []domain.VectorKey, vectors domain.VectorReader) ([]domain.Item, error) {
	vecs, err := vectors.Get(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Item, len(vecs))
	for i, vec := range vecs {
		var sum float64
		for _, v := range vec {
			sum += float64(v)
		}
		out[i] = sum
	}
	return out, nil
}

// testSplitter splits text into spans on periods.
type testSplitter struct{}

var _ domain.Splitter = (*testSplitter)(nil)

func (s *testSplitter) Name() string { return "test_splitter" }

func (s *testSplitter) Fields() domain.Field {
	elem := domain.Field{DType: domain.DTypeSpan}
	return domain.Field{Repeated: &elem}
}

func (s *testSplitter) Compute(values []domain.Item) ([]domain.Item, error) {
	out := make([]domain.Item, len(values))
	for i, v := range values {
		text, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected text to be a string, got %T: %w", v, domain.ErrInvalidInput)
		}
		spans, err := s.Split(text)
		if err != nil {
			return nil, err
		}
		items := make([]any, len(spans))
		for j, span := range spans {
			items[j] = span.Item()
		}
		out[i] = items
	}
	return out, nil
}

func (s *testSplitter) Split(text string) ([]domain.Span, error) {
	var spans []domain.Span
	for _, sentence := range strings.Split(text, ".") {
		if sentence == "" {
			continue
		}
		start := strings.Index(text, sentence)
		spans = append(spans, domain.Span{Start: start, End: start + len(sentence)})
	}
	return spans, nil
}
