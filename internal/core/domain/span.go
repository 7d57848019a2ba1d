package domain

// Span is an offset range within a string, optionally carrying
// enrichment outputs from signals applied per span. Offsets are byte
// offsets into the UTF-8 text; producers and consumers slice the same
// string, so the unit only matters to external presentation layers.
type Span struct {
	// Start is the inclusive start byte offset.
	Start int

	// End is the exclusive end byte offset.
	End int

	// Annotations maps a nested signal name to its enrichment output for
	// this span. Nil when the span carries no enrichment.
	Annotations map[string]Item
}

// Span field names in the Item representation.
const (
	spanStartKey = "start"
	spanEndKey   = "end"
)

// Item renders the span as a nested Item: the offsets plus any
// annotations as sibling keys.
func (s Span) Item() Item {
	out := map[string]any{
		spanStartKey: s.Start,
		spanEndKey:   s.End,
	}
	for name, a := range s.Annotations {
		out[name] = a
	}
	return out
}

// SpanFromItem reconstructs a Span from its Item representation.
// Returns false when the value is not span-shaped.
func SpanFromItem(value Item) (Span, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return Span{}, false
	}
	start, ok := asInt(m[spanStartKey])
	if !ok {
		return Span{}, false
	}
	end, ok := asInt(m[spanEndKey])
	if !ok {
		return Span{}, false
	}
	span := Span{Start: start, End: end}
	for k, v := range m {
		if k == spanStartKey || k == spanEndKey {
			continue
		}
		if span.Annotations == nil {
			span.Annotations = make(map[string]Item)
		}
		span.Annotations[k] = v
	}
	return span, true
}

// asInt coerces JSON and native numeric representations to int.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
