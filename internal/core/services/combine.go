package services

import (
	"fmt"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

// combineColumns folds the flat per-column outputs for one row back into
// a single nested Item matching the original row's structure. Signal
// outputs attach as annotations at the node of their source path; split
// outputs attach under the splitter's name so they replace the bare
// spans. Wildcard outputs must align positionally with the source
// sequences; a mismatch is an internal invariant violation.
func (s *DatasetService) combineColumns(item domain.Item, columns []domain.Column, flat map[string]any) (map[string]any, error) {
	combined := map[string]any{domain.RowIDKey: domain.RowID(item)}

	// Projections first: they establish the nested structure annotations
	// attach to.
	for _, col := range columns {
		if col.Signal != nil {
			continue
		}
		if isSelectAll(col) {
			projectAll(item, combined)
			continue
		}
		setAtPath(combined, item, col.Path)
	}

	for _, col := range columns {
		if col.Signal == nil {
			continue
		}
		// Ensure the source value is present so the annotation has a node
		// to attach to, even when the caller did not project it.
		ensureAtPath(combined, item, col.Path)

		name := col.Signal.Name()
		if sc, ok := col.Signal.(domain.SplitConsumer); ok && sc.SplitName() != "" {
			name = sc.SplitName()
		}
		if err := attachAnnotation(combined, col.Path, name, flat[col.OutputKey()]); err != nil {
			return nil, fmt.Errorf("combining %q at path %q: %w", col.OutputKey(), col.Path.String(), err)
		}
	}
	return combined, nil
}

// anchor returns the map position a path's value occupies in the combined
// tree: the maps along the leading field components, stopping at the
// first wildcard. Wildcard fan-out lives inside the stored value itself.
func anchor(path domain.Path) (fields domain.Path, ok bool) {
	for i, c := range path {
		if c == domain.Wildcard {
			if i == 0 {
				return nil, false
			}
			return path[:i], true
		}
	}
	return path, true
}

// setAtPath projects the source value at a path into the combined tree,
// creating intermediate maps along the leading field components. Below
// the anchor the source's fan-out structure is preserved, restricted to
// the projected branch.
func setAtPath(combined map[string]any, item domain.Item, path domain.Path) {
	fields, ok := anchor(path)
	if !ok || len(fields) == 0 {
		return
	}
	node := combined
	for _, c := range fields[:len(fields)-1] {
		child, ok := node[c].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[c] = child
		}
		node = child
	}
	node[fields[len(fields)-1]] = shapeAtPath(extractValue(item, fields), path[len(fields):])
}

// shapeAtPath copies a value along the remaining path components,
// keeping the sequence nesting of every wildcard and the mapping wrapper
// of every field component so annotations can attach at the leaves.
// Absent positions yield nil.
func shapeAtPath(value domain.Item, rest domain.Path) domain.Item {
	if len(rest) == 0 {
		return domain.CopyItem(value)
	}
	if rest[0] == domain.Wildcard {
		seq, ok := value.([]any)
		if !ok {
			return nil
		}
		out := make([]any, len(seq))
		for i, elem := range seq {
			out[i] = shapeAtPath(elem, rest[1:])
		}
		return out
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	child, ok := m[rest[0]]
	if !ok {
		return nil
	}
	return map[string]any{rest[0]: shapeAtPath(child, rest[1:])}
}

// ensureAtPath populates the combined tree with the source value at a
// path when nothing was projected there yet.
func ensureAtPath(combined map[string]any, item domain.Item, path domain.Path) {
	fields, ok := anchor(path)
	if !ok || len(fields) == 0 {
		return
	}
	node := combined
	for _, c := range fields[:len(fields)-1] {
		child, ok := node[c].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[c] = child
		}
		node = child
	}
	leaf := fields[len(fields)-1]
	if _, present := node[leaf]; !present {
		node[leaf] = extractValue(item, fields)
	}
}

// attachAnnotation merges a signal output into the combined tree at the
// node its source path addresses. Leaf nodes wrap into an enriched
// mapping carrying the original value under ValueKey; wildcard positions
// distribute outputs positionally.
func attachAnnotation(combined map[string]any, path domain.Path, name string, output domain.Item) error {
	fields, ok := anchor(path)
	if !ok || len(fields) == 0 {
		return fmt.Errorf("cannot anchor path: %w", domain.ErrInvalidInput)
	}
	node := combined
	for _, c := range fields[:len(fields)-1] {
		child, ok := node[c].(map[string]any)
		if !ok {
			return fmt.Errorf("missing node %q: %w", c, domain.ErrShapeMismatch)
		}
		node = child
	}
	leaf := fields[len(fields)-1]
	annotated, err := annotateNode(node[leaf], path[len(fields):], name, output)
	if err != nil {
		return err
	}
	node[leaf] = annotated
	return nil
}

// annotateNode walks the remaining path components in lockstep over the
// combined value and the output tree, attaching the output at each
// fan-out position. Wildcards distribute outputs positionally across the
// sequence; field components descend into the mapping without consuming
// output nesting, mirroring how outputs were re-nested.
func annotateNode(value domain.Item, rest domain.Path, name string, output domain.Item) (domain.Item, error) {
	if len(rest) == 0 {
		return enrich(value, name, output), nil
	}
	if rest[0] != domain.Wildcard {
		m, ok := value.(map[string]any)
		if !ok {
			if output == nil {
				return value, nil
			}
			return nil, fmt.Errorf("output present for non-mapping value at %q: %w", rest[0], domain.ErrShapeMismatch)
		}
		child, ok := m[rest[0]]
		if !ok {
			if output == nil {
				return value, nil
			}
			return nil, fmt.Errorf("missing node %q: %w", rest[0], domain.ErrShapeMismatch)
		}
		annotated, err := annotateNode(child, rest[1:], name, output)
		if err != nil {
			return nil, err
		}
		m[rest[0]] = annotated
		return m, nil
	}
	seq, ok := value.([]any)
	if !ok {
		if output == nil {
			return value, nil
		}
		return nil, fmt.Errorf("output present for non-sequence value: %w", domain.ErrShapeMismatch)
	}
	outSeq, ok := output.([]any)
	if !ok {
		return nil, fmt.Errorf("output is not a sequence: %w", domain.ErrShapeMismatch)
	}
	if len(outSeq) != len(seq) {
		return nil, fmt.Errorf("output length %d does not match source length %d: %w", len(outSeq), len(seq), domain.ErrShapeMismatch)
	}
	annotated := make([]any, len(seq))
	for i := range seq {
		a, err := annotateNode(seq[i], rest[1:], name, outSeq[i])
		if err != nil {
			return nil, err
		}
		annotated[i] = a
	}
	return annotated, nil
}

// enrich attaches one annotation at a node. An already-enriched node
// gains a sibling key; a bare value wraps into an enriched mapping first.
// Two signals at the same path never collide since names are part of the
// key space.
func enrich(value domain.Item, name string, output domain.Item) domain.Item {
	if m, ok := value.(map[string]any); ok {
		if _, enriched := m[domain.ValueKey]; enriched {
			m[name] = output
			return m
		}
	}
	return map[string]any{
		domain.ValueKey: value,
		name:            output,
	}
}
