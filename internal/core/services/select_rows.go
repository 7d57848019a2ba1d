package services

import (
	"context"
	"fmt"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driven"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driving"
	"github.com/TaoKevinKK/lilac/internal/logger"
)

// SelectRows filters rows, projects columns, applies ad-hoc signals and
// yields one output Item per surviving row, lazily. Planning-time
// failures (an embedding consumer whose source embedding was never
// computed, a split consumer whose splitter was never materialized) fail
// the whole call before any row is produced.
func (s *DatasetService) SelectRows(ctx context.Context, columns []domain.Column, opts driving.SelectOptions) (driving.RowIterator, error) {
	logger.Section("Select Rows")
	logger.Debug("Columns: %d, Filters: %d, Combine: %t", len(columns), len(opts.Filters), opts.CombineColumns)

	for _, col := range columns {
		if col.Signal == nil {
			continue
		}
		if ec, ok := col.Signal.(domain.EmbeddingConsumer); ok {
			if s.vectors == nil || !s.vectors.Has(ec.EmbeddingName(), col.Path) {
				return nil, fmt.Errorf(
					"embedding signal %q is not computed at path %q: %w",
					ec.EmbeddingName(), col.Path.String(), domain.ErrEmbeddingNotComputed)
			}
		}
		if sc, ok := col.Signal.(domain.SplitConsumer); ok && sc.SplitName() != "" {
			if !s.rows.HasSignal(sc.SplitName(), col.Path) {
				return nil, fmt.Errorf(
					"splitter %q has no materialized output at path %q: %w",
					sc.SplitName(), col.Path.String(), domain.ErrNotFound)
			}
		}
	}

	cursor, err := s.rows.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning rows: %w", err)
	}

	return &rowIterator{
		svc:     s,
		ctx:     ctx,
		cursor:  cursor,
		columns: columns,
		opts:    opts,
	}, nil
}

// rowIterator is the lazy sequence returned by SelectRows. Filtering,
// projection and signal evaluation happen only when the caller pulls.
type rowIterator struct {
	svc     *DatasetService
	ctx     context.Context
	cursor  driven.RowCursor
	columns []domain.Column
	opts    driving.SelectOptions
	current domain.Item
	err     error
	done    bool
}

// Next advances to the next surviving row, evaluating its columns.
// A per-row evaluation error terminates iteration at that row; rows
// already yielded stay delivered.
func (it *rowIterator) Next() bool {
	if it.done {
		return false
	}
	for it.cursor.Next() {
		item := it.cursor.Row()
		pass, err := it.svc.rowPasses(it.ctx, item, it.opts.Filters)
		if err != nil {
			it.fail(err)
			return false
		}
		if !pass {
			continue
		}
		out, err := it.svc.projectRow(it.ctx, item, it.columns)
		if err != nil {
			it.fail(err)
			return false
		}
		if it.opts.CombineColumns {
			out, err = it.svc.combineColumns(item, it.columns, out)
			if err != nil {
				it.fail(err)
				return false
			}
		}
		it.current = out
		return true
	}
	it.err = it.cursor.Err()
	it.done = true
	_ = it.cursor.Close()
	return false
}

// Row returns the current output Item.
func (it *rowIterator) Row() domain.Item { return it.current }

// Err returns the error that terminated iteration, if any.
func (it *rowIterator) Err() error { return it.err }

// Close releases the underlying cursor.
func (it *rowIterator) Close() error {
	it.done = true
	return it.cursor.Close()
}

func (it *rowIterator) fail(err error) {
	it.err = err
	it.done = true
	_ = it.cursor.Close()
}

// rowPasses evaluates every filter against the row's already-resident
// values. Filters are a logical AND; they never trigger signal
// computation.
func (s *DatasetService) rowPasses(ctx context.Context, item domain.Item, filters []domain.Filter) (bool, error) {
	for _, f := range filters {
		ok, err := s.filterPasses(ctx, item, f)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// filterPasses resolves a filter path against the raw row, falling back
// to materialized signal outputs when no raw value matches. A filter with
// matches passes when any matched value satisfies the predicate; a filter
// with no matches passes only for not-equals.
func (s *DatasetService) filterPasses(ctx context.Context, item domain.Item, f domain.Filter) (bool, error) {
	values := resolveMatches(item, f.Path)
	if len(values) == 0 {
		resolved, err := s.resolveMaterialized(ctx, item, f.Path)
		if err != nil {
			return false, err
		}
		values = resolved
	}
	if len(values) == 0 {
		return f.Op == domain.OpNotEquals, nil
	}
	for _, m := range values {
		ok, err := f.Match(m.value)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// resolveMaterialized resolves a path of the form
// <source path> . <signal name> . <sub-path> against materialized signal
// outputs. Yields no matches when no component names a materialized
// signal.
func (s *DatasetService) resolveMaterialized(ctx context.Context, item domain.Item, path domain.Path) ([]pathMatch, error) {
	rowID := domain.RowID(item)
	for i := 1; i < len(path); i++ {
		source, name, sub := path[:i], path[i], path[i+1:]
		if !s.rows.HasSignal(name, source) {
			continue
		}
		tree, ok, err := s.rows.SignalOutput(ctx, rowID, name, source)
		if err != nil {
			return nil, fmt.Errorf("reading output of signal %q at %q: %w", name, source.String(), err)
		}
		if !ok {
			return nil, nil
		}
		var matches []pathMatch
		for _, leaf := range flattenFanout(tree, source.Wildcards()) {
			matches = append(matches, resolveMatches(leaf, sub)...)
		}
		return matches, nil
	}
	return nil, nil
}

// projectRow produces the flat per-column output for one row.
func (s *DatasetService) projectRow(ctx context.Context, item domain.Item, columns []domain.Column) (map[string]any, error) {
	out := map[string]any{domain.RowIDKey: domain.RowID(item)}
	for _, col := range columns {
		if col.Signal == nil {
			if isSelectAll(col) {
				projectAll(item, out)
				continue
			}
			out[col.OutputKey()] = extractValue(item, col.Path)
			continue
		}
		value, err := s.evaluateSignalColumn(ctx, item, col)
		if err != nil {
			return nil, err
		}
		out[col.OutputKey()] = value
	}
	return out, nil
}

// isSelectAll reports whether a projection column selects every top-level
// field of the row.
func isSelectAll(col domain.Column) bool {
	return len(col.Path) == 1 && col.Path[0] == domain.Wildcard
}

// projectAll copies every top-level field of a row into the output.
func projectAll(item domain.Item, out map[string]any) {
	m, ok := item.(map[string]any)
	if !ok {
		return
	}
	for k, v := range m {
		if k == domain.RowIDKey {
			continue
		}
		out[k] = domain.CopyItem(v)
	}
}

// evaluateSignalColumn applies a UDF column's signal over the values at
// its path, preserving wildcard fan-out shape. The evaluation mode is
// chosen by capability: split consumption, embedding consumption, or
// plain value computation.
func (s *DatasetService) evaluateSignalColumn(ctx context.Context, item domain.Item, col domain.Column) (domain.Item, error) {
	if sc, ok := col.Signal.(domain.SplitConsumer); ok && sc.SplitName() != "" {
		return s.evaluateOverSplits(ctx, item, col, sc.SplitName())
	}
	if ec, ok := col.Signal.(domain.EmbeddingConsumer); ok {
		return s.evaluateOverEmbeddings(ctx, item, col, ec)
	}
	return s.evaluatePlain(item, col)
}

// evaluatePlain resolves the path's matched leaves, invokes the signal's
// base evaluation over the flattened sequence, and re-nests outputs into
// the original fan-out shape.
func (s *DatasetService) evaluatePlain(item domain.Item, col domain.Column) (domain.Item, error) {
	matches := resolveMatches(item, col.Path)
	values := make([]domain.Item, len(matches))
	for i, m := range matches {
		values[i] = m.value
	}
	outputs, err := col.Signal.Compute(values)
	if err != nil {
		return nil, fmt.Errorf("signal %q at path %q: %w", col.Signal.Name(), col.Path.String(), err)
	}
	return s.renestChecked(item, col, outputs)
}

// evaluateOverEmbeddings resolves concrete vector keys for every matched
// leaf, batch-reads vectors through a store view scoped to the source
// embedding, and feeds them to the consumer.
func (s *DatasetService) evaluateOverEmbeddings(ctx context.Context, item domain.Item, col domain.Column, ec domain.EmbeddingConsumer) (domain.Item, error) {
	rowID := domain.RowID(item)
	matches := resolveMatches(item, col.Path)
	keys := make([]domain.VectorKey, len(matches))
	for i, m := range matches {
		keys[i] = domain.VectorKey{RowID: rowID, Path: m.path}
	}
	view := &vectorReaderView{store: s.vectors, signalName: ec.EmbeddingName()}
	outputs, err := ec.ComputeFromVectors(ctx, keys, view)
	if err != nil {
		return nil, fmt.Errorf("signal %q at path %q: %w", col.Signal.Name(), col.Path.String(), err)
	}
	return s.renestChecked(item, col, outputs)
}

// evaluateOverSplits fetches the precomputed spans of the named splitter
// at the column's path and invokes the attached signal once per span's
// text instead of once per whole-field value. Each output nests inside
// its span, keyed by the attached signal's name.
func (s *DatasetService) evaluateOverSplits(ctx context.Context, item domain.Item, col domain.Column, splitName string) (domain.Item, error) {
	rowID := domain.RowID(item)
	matches := resolveMatches(item, col.Path)
	tree, ok, err := s.rows.SignalOutput(ctx, rowID, splitName, col.Path)
	if err != nil {
		return nil, fmt.Errorf("reading spans of %q at path %q: %w", splitName, col.Path.String(), err)
	}
	if !ok {
		return nil, fmt.Errorf("row %q has no spans for %q at path %q: %w", rowID, splitName, col.Path.String(), domain.ErrNotFound)
	}
	spansPerLeaf := flattenFanout(tree, col.Path.Wildcards())
	if len(spansPerLeaf) != len(matches) {
		return nil, fmt.Errorf(
			"splitter %q produced %d span lists for %d leaves at path %q: %w",
			splitName, len(spansPerLeaf), len(matches), col.Path.String(), domain.ErrShapeMismatch)
	}

	// Gather every span's text across all leaves for one batched
	// evaluation, remembering per-leaf span counts for redistribution.
	var spanTexts []domain.Item
	leafSpans := make([][]domain.Span, len(matches))
	for i, m := range matches {
		text, ok := m.value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string at %q, got %T: %w", m.path.String(), m.value, domain.ErrInvalidInput)
		}
		spanItems, ok := spansPerLeaf[i].([]any)
		if !ok {
			return nil, fmt.Errorf("splitter %q output at %q is not a span list: %w", splitName, m.path.String(), domain.ErrShapeMismatch)
		}
		spans := make([]domain.Span, len(spanItems))
		for j, si := range spanItems {
			span, ok := domain.SpanFromItem(si)
			if !ok {
				return nil, fmt.Errorf("splitter %q output at %q is not span-shaped: %w", splitName, m.path.String(), domain.ErrShapeMismatch)
			}
			if span.Start < 0 || span.End > len(text) || span.Start > span.End {
				return nil, fmt.Errorf("span [%d, %d) out of bounds at %q: %w", span.Start, span.End, m.path.String(), domain.ErrShapeMismatch)
			}
			spans[j] = span
			spanTexts = append(spanTexts, text[span.Start:span.End])
		}
		leafSpans[i] = spans
	}

	outputs, err := col.Signal.Compute(spanTexts)
	if err != nil {
		return nil, fmt.Errorf("signal %q over splits of %q: %w", col.Signal.Name(), splitName, err)
	}
	if len(outputs) != len(spanTexts) {
		return nil, fmt.Errorf(
			"signal %q produced %d outputs for %d spans: %w",
			col.Signal.Name(), len(outputs), len(spanTexts), domain.ErrShapeMismatch)
	}

	// Rebuild per-leaf span lists with each output attached as a span
	// annotation under the attached signal's name.
	name := col.Signal.Name()
	leafOutputs := make([]domain.Item, len(matches))
	next := 0
	for i, spans := range leafSpans {
		annotated := make([]any, len(spans))
		for j, span := range spans {
			if span.Annotations == nil {
				span.Annotations = make(map[string]domain.Item)
			}
			span.Annotations[name] = outputs[next]
			next++
			annotated[j] = span.Item()
		}
		leafOutputs[i] = annotated
	}
	return s.renestChecked(item, col, leafOutputs)
}

// renestChecked re-nests flat outputs into the column path's fan-out
// shape, verifying the one-output-per-leaf contract.
func (s *DatasetService) renestChecked(item domain.Item, col domain.Column, outputs []domain.Item) (domain.Item, error) {
	matches := resolveMatches(item, col.Path)
	if len(outputs) != len(matches) {
		return nil, fmt.Errorf(
			"signal %q produced %d outputs for %d leaves at path %q: %w",
			col.Signal.Name(), len(outputs), len(matches), col.Path.String(), domain.ErrShapeMismatch)
	}
	idx := 0
	tree, err := renestOutputs(item, col.Path, outputs, &idx)
	if err != nil {
		return nil, fmt.Errorf("signal %q at path %q: %w", col.Signal.Name(), col.Path.String(), err)
	}
	if idx != len(outputs) {
		return nil, fmt.Errorf(
			"signal %q consumed %d of %d outputs at path %q: %w",
			col.Signal.Name(), idx, len(outputs), col.Path.String(), domain.ErrShapeMismatch)
	}
	return tree, nil
}
