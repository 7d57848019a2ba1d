package domain

// Column is one query request unit: a path, an optional attached signal
// (UDF), and an optional output alias.
type Column struct {
	// Path addresses the source values.
	Path Path

	// Signal is the ad-hoc computation applied over the path's values.
	// Nil for a straight projection.
	Signal Signal

	// Alias overrides the derived output key when non-empty.
	Alias string
}

// NewColumn creates a projection column from a dotted path string.
func NewColumn(path string) Column {
	return Column{Path: ParsePath(path)}
}

// NewSignalColumn creates a UDF column from a dotted path string.
func NewSignalColumn(path string, signal Signal) Column {
	return Column{Path: ParsePath(path), Signal: signal}
}

// OutputKey derives the key under which the column's values appear in
// query output. Projections use the dotted path; UDF columns use
// "name(dotted.path)" with wildcards rendered literally, unless an alias
// is given, in which case the alias is used verbatim.
func (c Column) OutputKey() string {
	if c.Alias != "" {
		return c.Alias
	}
	if c.Signal == nil {
		return c.Path.String()
	}
	return c.Signal.Name() + "(" + c.Path.String() + ")"
}
