package signals

import (
	"fmt"
	"strings"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

// Ensure TextStatistics implements the split-consumer capability.
var _ domain.SplitConsumer = (*TextStatistics)(nil)

// TextStatisticsName is the registry name of the statistics signal.
const TextStatisticsName = "text_statistics"

// TextStatistics produces basic counts for each input string. When Split
// names a precomputed splitter, the counts are produced per span instead
// of per whole-field value.
type TextStatistics struct {
	// Split optionally names the precomputed splitter whose spans the
	// outputs annotate.
	Split string
}

// NewTextStatistics creates a statistics signal over whole-field values.
func NewTextStatistics() *TextStatistics {
	return &TextStatistics{}
}

// Name implements domain.Signal.
func (s *TextStatistics) Name() string { return TextStatisticsName }

// Fields implements domain.Signal.
func (s *TextStatistics) Fields() domain.Field {
	return domain.Field{Fields: map[string]domain.Field{
		"num_chars": {DType: domain.DTypeInt},
		"num_words": {DType: domain.DTypeInt},
	}}
}

// SplitName implements domain.SplitConsumer.
func (s *TextStatistics) SplitName() string { return s.Split }

// Compute produces one statistics mapping per input string.
func (s *TextStatistics) Compute(values []domain.Item) ([]domain.Item, error) {
	out := make([]domain.Item, len(values))
	for i, v := range values {
		text, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected text to be a string, got %T: %w", v, domain.ErrInvalidInput)
		}
		out[i] = map[string]any{
			"num_chars": len(text),
			"num_words": len(strings.Fields(text)),
		}
	}
	return out, nil
}
