// Package domain defines the core entities of the Lilac query engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Item: A recursively nested row value
//   - Path: A wildcard-capable address into a nested Item
//   - Schema / Field: Declared shape of row values
//   - Signal: A named computation unit with optional capabilities
//   - Column / Filter: Query request units
//   - Span / VectorKey: Enrichment artifacts
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
