package domain

// Item is a recursively nested value: a scalar (string, number, boolean,
// nil), an ordered sequence ([]any), or a mapping (map[string]any).
// Every top-level Item representing a row carries its RowID under RowIDKey.
type Item = any

// RowIDKey is the reserved key under which a row Item carries its RowID.
const RowIDKey = "__rowid__"

// ValueKey is the reserved key under which an enriched node carries the
// original leaf value. Signal annotations attach as siblings of this key.
const ValueKey = "__value__"

// RowID returns the row identifier carried by a row Item, or the empty
// string when the Item is not a row mapping or carries none.
func RowID(item Item) string {
	m, ok := item.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m[RowIDKey].(string)
	return id
}

// CopyItem returns a deep copy of an Item. Sequences and mappings are
// copied recursively; scalars are returned as-is.
func CopyItem(item Item) Item {
	switch v := item.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = CopyItem(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = CopyItem(e)
		}
		return out
	default:
		return v
	}
}
