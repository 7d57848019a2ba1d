package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanItemRoundTrip(t *testing.T) {
	span := Span{Start: 3, End: 10}
	item := span.Item()
	assert.Equal(t, map[string]any{"start": 3, "end": 10}, item)

	got, ok := SpanFromItem(item)
	require.True(t, ok)
	assert.Equal(t, span, got)
}

func TestSpanItemCarriesAnnotations(t *testing.T) {
	span := Span{
		Start:       0,
		End:         5,
		Annotations: map[string]Item{"length_signal": 5},
	}
	item := span.Item()
	assert.Equal(t, map[string]any{"start": 0, "end": 5, "length_signal": 5}, item)

	got, ok := SpanFromItem(item)
	require.True(t, ok)
	assert.Equal(t, span, got)
}

func TestSpanFromItemJSONNumbers(t *testing.T) {
	// Offsets decoded from JSON arrive as float64.
	got, ok := SpanFromItem(map[string]any{"start": float64(2), "end": float64(7)})
	require.True(t, ok)
	assert.Equal(t, Span{Start: 2, End: 7}, got)
}

func TestSpanFromItemNotSpanShaped(t *testing.T) {
	_, ok := SpanFromItem("text")
	assert.False(t, ok)

	_, ok = SpanFromItem(map[string]any{"start": 1})
	assert.False(t, ok)

	_, ok = SpanFromItem(map[string]any{"start": "a", "end": "b"})
	assert.False(t, ok)
}
