package signals

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

// Ensure SentenceSplitter implements the splitter capability.
var _ domain.Splitter = (*SentenceSplitter)(nil)

// SentenceSplitterName is the registry name of the built-in splitter.
const SentenceSplitterName = "sentence_splitter"

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]?`)

// SentenceSplitter decomposes text into sentence spans on terminal
// punctuation. Span byte offsets exclude surrounding whitespace.
type SentenceSplitter struct{}

// NewSentenceSplitter creates a sentence splitter.
func NewSentenceSplitter() *SentenceSplitter {
	return &SentenceSplitter{}
}

// Name implements domain.Signal.
func (s *SentenceSplitter) Name() string { return SentenceSplitterName }

// Fields implements domain.Signal.
func (s *SentenceSplitter) Fields() domain.Field {
	elem := domain.Field{DType: domain.DTypeSpan}
	return domain.Field{Repeated: &elem}
}

// Compute implements the base evaluation: one span list per input string.
func (s *SentenceSplitter) Compute(values []domain.Item) ([]domain.Item, error) {
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

// Split produces the sentence spans for one input string.
func (s *SentenceSplitter) Split(text string) ([]domain.Span, error) {
	var spans []domain.Span
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		start, end := trimOffsets(text, loc[0], loc[1])
		if start >= end {
			continue
		}
		spans = append(spans, domain.Span{Start: start, End: end})
	}
	return spans, nil
}

// trimOffsets narrows a span to exclude leading and trailing whitespace.
func trimOffsets(text string, start, end int) (int, int) {
	for start < end && unicode.IsSpace(rune(text[start])) {
		start++
	}
	for end > start && unicode.IsSpace(rune(text[end-1])) {
		end--
	}
	return start, end
}
