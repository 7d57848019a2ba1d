package services

import (
	"context"
	"fmt"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
	"github.com/TaoKevinKK/lilac/internal/logger"
)

// ComputeSignal materializes a signal's outputs at a path over every
// stored row. Splitter outputs persist as span trees in the row store;
// embedder outputs persist as vectors in the vector store keyed by row
// and concrete path; plain outputs persist as value trees. Materialized
// outputs become visible to filters, dependency resolution and schema
// merging.
func (s *DatasetService) ComputeSignal(ctx context.Context, signal domain.Signal, path domain.Path) error {
	logger.Section("Compute Signal")
	logger.Debug("Signal: %s, Path: %s", signal.Name(), path.String())

	if _, ok := signal.(domain.Embedder); ok && s.vectors == nil {
		return fmt.Errorf("embedding signal %q requires a vector store: %w", signal.Name(), domain.ErrInvalidInput)
	}

	cursor, err := s.rows.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning rows: %w", err)
	}
	defer cursor.Close()

	rows := 0
	for cursor.Next() {
		if err := s.computeRow(ctx, signal, path, cursor.Row()); err != nil {
			return err
		}
		rows++
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("scanning rows: %w", err)
	}
	logger.Debug("Materialized %s over %d rows", signal.Name(), rows)
	return nil
}

func (s *DatasetService) computeRow(ctx context.Context, signal domain.Signal, path domain.Path, item domain.Item) error {
	rowID := domain.RowID(item)
	matches := resolveMatches(item, path)

	if em, ok := signal.(domain.Embedder); ok {
		return s.embedRow(ctx, em, path, rowID, matches)
	}

	var outputs []domain.Item
	if sp, ok := signal.(domain.Splitter); ok {
		outputs = make([]domain.Item, len(matches))
		for i, m := range matches {
			text, ok := m.value.(string)
			if !ok {
				return fmt.Errorf("signal %q expected string at %q, got %T: %w", signal.Name(), m.path.String(), m.value, domain.ErrInvalidInput)
			}
			spans, err := sp.Split(text)
			if err != nil {
				return fmt.Errorf("signal %q at %q: %w", signal.Name(), m.path.String(), err)
			}
			items := make([]any, len(spans))
			for j, span := range spans {
				items[j] = span.Item()
			}
			outputs[i] = items
		}
	} else {
		values := make([]domain.Item, len(matches))
		for i, m := range matches {
			values[i] = m.value
		}
		var err error
		outputs, err = signal.Compute(values)
		if err != nil {
			return fmt.Errorf("signal %q at path %q: %w", signal.Name(), path.String(), err)
		}
		if len(outputs) != len(matches) {
			return fmt.Errorf(
				"signal %q produced %d outputs for %d leaves at path %q: %w",
				signal.Name(), len(outputs), len(matches), path.String(), domain.ErrShapeMismatch)
		}
	}

	idx := 0
	tree, err := renestOutputs(item, path, outputs, &idx)
	if err != nil {
		return fmt.Errorf("signal %q at path %q: %w", signal.Name(), path.String(), err)
	}
	if idx != len(outputs) {
		return fmt.Errorf(
			"signal %q consumed %d of %d outputs at path %q: %w",
			signal.Name(), idx, len(outputs), path.String(), domain.ErrShapeMismatch)
	}
	if err := s.rows.PutSignalOutput(ctx, rowID, signal.Name(), path, tree); err != nil {
		return fmt.Errorf("persisting output of %q for row %q: %w", signal.Name(), rowID, err)
	}
	return nil
}

// embedRow computes and persists one row's embedding vectors, keyed by
// the concrete path of each matched leaf.
func (s *DatasetService) embedRow(ctx context.Context, em domain.Embedder, path domain.Path, rowID string, matches []pathMatch) error {
	if len(matches) == 0 {
		return nil
	}
	texts := make([]string, len(matches))
	for i, m := range matches {
		text, ok := m.value.(string)
		if !ok {
			return fmt.Errorf("signal %q expected string at %q, got %T: %w", em.Name(), m.path.String(), m.value, domain.ErrInvalidInput)
		}
		texts[i] = text
	}
	vectors, err := em.Embed(texts)
	if err != nil {
		return fmt.Errorf("signal %q at path %q: %w", em.Name(), path.String(), err)
	}
	if len(vectors) != len(matches) {
		return fmt.Errorf(
			"signal %q produced %d vectors for %d leaves at path %q: %w",
			em.Name(), len(vectors), len(matches), path.String(), domain.ErrShapeMismatch)
	}
	for i, m := range matches {
		key := domain.VectorKey{RowID: rowID, Path: m.path}
		if err := s.vectors.Put(ctx, em.Name(), key, vectors[i]); err != nil {
			return fmt.Errorf("persisting vector %s for %q: %w", key.String(), em.Name(), err)
		}
	}
	return nil
}
