package services

import (
	"fmt"
	"strconv"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

// pathMatch is one resolved leaf: the concrete path (wildcards replaced
// by indices) and the value found there.
type pathMatch struct {
	path  domain.Path
	value domain.Item
}

// resolvePath walks an Item against a possibly-wildcarded path, invoking
// visit for every match in depth-first order. The concrete path passed to
// visit is only valid for the duration of the call.
//
// Resolution is purely structural: an absent key, a non-mapping under a
// field component, or a non-sequence under a wildcard yields no match at
// that branch, never an error.
func resolvePath(item domain.Item, path domain.Path, visit func(concrete domain.Path, value domain.Item) error) error {
	return walkPath(item, path, make(domain.Path, 0, len(path)), visit)
}

func walkPath(value domain.Item, rest, concrete domain.Path, visit func(domain.Path, domain.Item) error) error {
	if len(rest) == 0 {
		return visit(concrete, value)
	}
	if rest[0] == domain.Wildcard {
		seq, ok := value.([]any)
		if !ok {
			return nil
		}
		for i, elem := range seq {
			if err := walkPath(elem, rest[1:], append(concrete, strconv.Itoa(i)), visit); err != nil {
				return err
			}
		}
		return nil
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	child, ok := m[rest[0]]
	if !ok {
		return nil
	}
	return walkPath(child, rest[1:], append(concrete, rest[0]), visit)
}

// resolveMatches collects all matches of a path over an item, copying
// each concrete path so it outlives the walk.
func resolveMatches(item domain.Item, path domain.Path) []pathMatch {
	var matches []pathMatch
	_ = resolvePath(item, path, func(concrete domain.Path, value domain.Item) error {
		matches = append(matches, pathMatch{
			path:  append(domain.Path{}, concrete...),
			value: value,
		})
		return nil
	})
	return matches
}

// extractValue copies the value addressed by a path, preserving the whole
// fan-out structure for wildcard paths. Absent positions yield nil.
func extractValue(value domain.Item, path domain.Path) domain.Item {
	if len(path) == 0 {
		return domain.CopyItem(value)
	}
	if path[0] == domain.Wildcard {
		seq, ok := value.([]any)
		if !ok {
			return nil
		}
		out := make([]any, len(seq))
		for i, elem := range seq {
			out[i] = extractValue(elem, path[1:])
		}
		return out
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	child, ok := m[path[0]]
	if !ok {
		return nil
	}
	return extractValue(child, path[1:])
}

// renestOutputs rebuilds the wildcard fan-out shape implied by path over
// value, substituting one element of outputs per matched leaf in
// depth-first order. idx tracks consumption across recursive calls; the
// caller verifies every output was consumed.
func renestOutputs(value domain.Item, path domain.Path, outputs []domain.Item, idx *int) (domain.Item, error) {
	if len(path) == 0 {
		if *idx >= len(outputs) {
			return nil, fmt.Errorf("ran out of outputs at index %d: %w", *idx, domain.ErrShapeMismatch)
		}
		out := outputs[*idx]
		*idx++
		return out, nil
	}
	if path[0] == domain.Wildcard {
		seq, ok := value.([]any)
		if !ok {
			return nil, nil
		}
		out := make([]any, len(seq))
		for i, elem := range seq {
			nested, err := renestOutputs(elem, path[1:], outputs, idx)
			if err != nil {
				return nil, err
			}
			out[i] = nested
		}
		return out, nil
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, nil
	}
	child, ok := m[path[0]]
	if !ok {
		return nil, nil
	}
	return renestOutputs(child, path[1:], outputs, idx)
}

// flattenFanout re-flattens a renested output tree back into depth-first
// leaf order. wildcards is the number of wildcard components in the path
// the tree was built for.
func flattenFanout(tree domain.Item, wildcards int) []domain.Item {
	if wildcards == 0 {
		if tree == nil {
			return nil
		}
		return []domain.Item{tree}
	}
	seq, ok := tree.([]any)
	if !ok {
		return nil
	}
	var out []domain.Item
	for _, elem := range seq {
		out = append(out, flattenFanout(elem, wildcards-1)...)
	}
	return out
}
