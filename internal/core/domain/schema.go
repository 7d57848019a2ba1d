package domain

// DType is the declared value kind of a leaf field.
type DType string

// Supported leaf dtypes.
const (
	DTypeString  DType = "string"
	DTypeInt     DType = "int"
	DTypeFloat   DType = "float"
	DTypeBoolean DType = "boolean"
	DTypeNull    DType = "null"
	// DTypeEmbedding marks a field whose values live in the vector store
	// rather than inline in the row.
	DTypeEmbedding DType = "embedding"
	// DTypeSpan marks a splitter output field.
	DTypeSpan DType = "span"
)

// Field declares the shape of a value at one position in the schema.
// Exactly one of DType, Repeated, or Fields is set.
type Field struct {
	// DType is the leaf value kind. Empty for repeated or object fields.
	DType DType

	// Repeated declares the element field when the value is a sequence.
	Repeated *Field

	// Fields declares nested object fields.
	Fields map[string]Field
}

// Schema mirrors the nested shape of row Items, mapping top-level field
// names to their declarations.
type Schema struct {
	Fields map[string]Field
}

// FieldAt walks the schema along a path. Wildcard components descend into
// the repeated element field. Returns false when the path is not declared.
func (s Schema) FieldAt(p Path) (Field, bool) {
	if len(p) == 0 {
		return Field{}, false
	}
	f, ok := s.Fields[p[0]]
	if !ok {
		return Field{}, false
	}
	for _, c := range p[1:] {
		if c == Wildcard {
			if f.Repeated == nil {
				return Field{}, false
			}
			f = *f.Repeated
			continue
		}
		nested, ok := f.Fields[c]
		if !ok {
			return Field{}, false
		}
		f = nested
	}
	return f, true
}

// InferField derives a field declaration from a concrete Item value.
// Null values infer DTypeNull; ingestion normalises them later if a
// non-null value appears at the same path.
func InferField(value Item) Field {
	switch v := value.(type) {
	case nil:
		return Field{DType: DTypeNull}
	case string:
		return Field{DType: DTypeString}
	case bool:
		return Field{DType: DTypeBoolean}
	case int, int32, int64:
		return Field{DType: DTypeInt}
	case float32, float64:
		return Field{DType: DTypeFloat}
	case []any:
		var elem Field
		if len(v) > 0 {
			elem = InferField(v[0])
		}
		return Field{Repeated: &elem}
	case map[string]any:
		fields := make(map[string]Field, len(v))
		for k, e := range v {
			if k == RowIDKey {
				continue
			}
			fields[k] = InferField(e)
		}
		return Field{Fields: fields}
	default:
		return Field{}
	}
}

// InferSchema derives a schema from a row Item, skipping the reserved
// row-id key.
func InferSchema(row Item) Schema {
	f := InferField(row)
	if f.Fields == nil {
		f.Fields = map[string]Field{}
	}
	return Schema{Fields: f.Fields}
}
