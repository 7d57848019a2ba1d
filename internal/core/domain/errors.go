package domain

import "errors"

// Domain errors represent query-engine contract failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist: an
	// unregistered signal name, or a vector key with no stored vector.
	ErrNotFound = errors.New("not found")

	// ErrEmbeddingNotComputed indicates an embedding-consumer signal was
	// requested where no prior ComputeSignal call materialized the needed
	// embedding at that path. Raised at planning time, before any row is
	// produced.
	ErrEmbeddingNotComputed = errors.New("embedding not computed")

	// ErrShapeMismatch indicates a signal's output fan-out shape disagrees
	// with the source fan-out shape. Always a programming-contract bug in
	// a signal implementation, never user input.
	ErrShapeMismatch = errors.New("output shape mismatch")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)
