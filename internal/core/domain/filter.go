package domain

import "fmt"

// BinaryOp is a filter comparison operator.
type BinaryOp string

// Supported comparison operators.
const (
	OpEquals       BinaryOp = "equals"
	OpNotEquals    BinaryOp = "not_equal"
	OpLessThan     BinaryOp = "less"
	OpLessEqual    BinaryOp = "less_equal"
	OpGreaterThan  BinaryOp = "greater"
	OpGreaterEqual BinaryOp = "greater_equal"
)

// Filter is a value predicate over one path. Filters are evaluated
// against already-resident values only; they never trigger signal
// computation.
type Filter struct {
	Path  Path
	Op    BinaryOp
	Value any
}

// NewFilter creates a filter from a dotted path string.
func NewFilter(path string, op BinaryOp, value any) Filter {
	return Filter{Path: ParsePath(path), Op: op, Value: value}
}

// Match evaluates the predicate against one resident value.
func (f Filter) Match(value any) (bool, error) {
	switch f.Op {
	case OpEquals:
		return valuesEqual(value, f.Value), nil
	case OpNotEquals:
		return !valuesEqual(value, f.Value), nil
	case OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual:
		cmp, err := compareValues(value, f.Value)
		if err != nil {
			return false, fmt.Errorf("filter on %q: %w", f.Path.String(), err)
		}
		switch f.Op {
		case OpLessThan:
			return cmp < 0, nil
		case OpLessEqual:
			return cmp <= 0, nil
		case OpGreaterThan:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	default:
		return false, fmt.Errorf("filter on %q: unsupported operator %q: %w", f.Path.String(), f.Op, ErrInvalidInput)
	}
}

// valuesEqual compares two scalars, treating all numeric representations
// as equivalent (JSON decoding yields float64).
func valuesEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return a == b
}

// compareValues orders two scalars where the underlying dtype supports
// ordering. Returns -1, 0, or 1.
func compareValues(a, b any) (int, error) {
	if af, ok := asFloat(a); ok {
		bf, bok := asFloat(b)
		if !bok {
			return 0, fmt.Errorf("cannot compare number with %T: %w", b, ErrInvalidInput)
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, fmt.Errorf("values %T and %T are not orderable: %w", a, b, ErrInvalidInput)
}

// asFloat coerces any numeric representation to float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
