package services

import (
	"context"
	"fmt"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driven"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driving"
)

// Ensure DatasetService implements the interface.
var _ driving.Dataset = (*DatasetService)(nil)

// DatasetService is the query engine over one stored row set. It owns no
// state beyond its collaborators: the row store, the vector store and the
// session's signal registry.
type DatasetService struct {
	rows     driven.RowStore
	vectors  driven.VectorStore
	registry *SignalRegistry
}

// NewDatasetService creates a dataset service. The vector store may be
// nil when no embedding signals are used.
func NewDatasetService(rows driven.RowStore, vectors driven.VectorStore, registry *SignalRegistry) *DatasetService {
	return &DatasetService{
		rows:     rows,
		vectors:  vectors,
		registry: registry,
	}
}

// Schema returns the source schema merged with the declared output fields
// of every materialized signal. Output fields attach at the node of the
// path the signal was computed over, keyed by signal name. Resolving a
// materialized signal's declared fields requires its constructor to be
// registered.
func (s *DatasetService) Schema() (domain.Schema, error) {
	merged := copySchema(s.rows.Schema())
	for _, ref := range s.rows.Signals() {
		sig, err := s.registry.New(ref.Name)
		if err != nil {
			return domain.Schema{}, fmt.Errorf("merging schema for materialized signal at %q: %w", ref.Path.String(), err)
		}
		if err := attachSignalField(&merged, ref.Path, ref.Name, outputField(sig)); err != nil {
			return domain.Schema{}, err
		}
	}
	return merged, nil
}

// outputField declares the field a signal contributes to the merged
// schema. Splitter outputs are repeated spans carrying the base field.
func outputField(sig domain.Signal) domain.Field {
	if _, ok := sig.(domain.Splitter); ok {
		elem := domain.Field{DType: domain.DTypeSpan}
		return domain.Field{Repeated: &elem}
	}
	if _, ok := sig.(domain.Embedder); ok {
		return domain.Field{DType: domain.DTypeEmbedding}
	}
	return sig.Fields()
}

// copySchema deep-copies a schema so merging never mutates the source.
func copySchema(s domain.Schema) domain.Schema {
	return domain.Schema{Fields: copyFields(s.Fields)}
}

func copyFields(fields map[string]domain.Field) map[string]domain.Field {
	if fields == nil {
		return nil
	}
	out := make(map[string]domain.Field, len(fields))
	for k, f := range fields {
		out[k] = copyField(f)
	}
	return out
}

func copyField(f domain.Field) domain.Field {
	out := domain.Field{DType: f.DType, Fields: copyFields(f.Fields)}
	if f.Repeated != nil {
		elem := copyField(*f.Repeated)
		out.Repeated = &elem
	}
	return out
}

// attachSignalField places a signal's output field as a nested field at
// the schema node addressed by path. Wildcards descend into the repeated
// element field.
func attachSignalField(schema *domain.Schema, path domain.Path, name string, field domain.Field) error {
	if len(path) == 0 {
		return fmt.Errorf("signal %q materialized at empty path: %w", name, domain.ErrInvalidInput)
	}
	if schema.Fields == nil {
		schema.Fields = make(map[string]domain.Field)
	}
	root, ok := schema.Fields[path[0]]
	if !ok {
		return fmt.Errorf("signal %q materialized at undeclared path %q: %w", name, path.String(), domain.ErrNotFound)
	}
	if err := attachAt(&root, path[1:], name, field); err != nil {
		return fmt.Errorf("signal %q at path %q: %w", name, path.String(), err)
	}
	schema.Fields[path[0]] = root
	return nil
}

func attachAt(f *domain.Field, rest domain.Path, name string, field domain.Field) error {
	if len(rest) == 0 {
		if f.Fields == nil {
			f.Fields = make(map[string]domain.Field)
		}
		f.Fields[name] = field
		return nil
	}
	if rest[0] == domain.Wildcard {
		if f.Repeated == nil {
			return fmt.Errorf("wildcard over non-repeated field: %w", domain.ErrNotFound)
		}
		return attachAt(f.Repeated, rest[1:], name, field)
	}
	nested, ok := f.Fields[rest[0]]
	if !ok {
		return fmt.Errorf("undeclared field %q: %w", rest[0], domain.ErrNotFound)
	}
	if err := attachAt(&nested, rest[1:], name, field); err != nil {
		return err
	}
	f.Fields[rest[0]] = nested
	return nil
}

// vectorReaderView scopes the vector store to one embedding signal,
// presenting the plain key-to-vector interface embedding consumers see.
type vectorReaderView struct {
	store      driven.VectorStore
	signalName string
}

var _ domain.VectorReader = (*vectorReaderView)(nil)

func (v *vectorReaderView) Get(ctx context.Context, keys []domain.VectorKey) ([][]float32, error) {
	return v.store.Get(ctx, v.signalName, keys)
}
