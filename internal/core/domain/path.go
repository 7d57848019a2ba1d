package domain

import (
	"strconv"
	"strings"
)

// Wildcard is the path component denoting "every element of the sequence
// at this position".
const Wildcard = "*"

// Path addresses a location within a nested Item. Each component is either
// a field name or the Wildcard marker. Depth is unbounded.
type Path []string

// ParsePath parses a dotted path string such as "text.*.summary".
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "."))
}

// String renders the path in dotted form with wildcards rendered literally.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// HasWildcard reports whether any component is a wildcard.
func (p Path) HasWildcard() bool {
	for _, c := range p {
		if c == Wildcard {
			return true
		}
	}
	return false
}

// Wildcards returns the number of wildcard components.
func (p Path) Wildcards() int {
	n := 0
	for _, c := range p {
		if c == Wildcard {
			n++
		}
	}
	return n
}

// Equal reports whether two paths are component-wise identical.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Matches reports whether a concrete path (wildcards substituted with
// indices) is addressed by this possibly-wildcarded path.
func (p Path) Matches(concrete Path) bool {
	if len(p) != len(concrete) {
		return false
	}
	for i := range p {
		if p[i] == Wildcard {
			if _, err := strconv.Atoi(concrete[i]); err != nil {
				return false
			}
			continue
		}
		if p[i] != concrete[i] {
			return false
		}
	}
	return true
}

// Child returns a new path with the component appended.
func (p Path) Child(component string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = component
	return out
}
