// Package services implements the driving port interfaces.
// Services contain the core query-engine logic: the signal registry,
// the wildcard path resolver, the SelectRows executor, the result
// assembler, and signal materialization. They orchestrate calls to
// driven ports (row and vector stores).
//
// Services are pure Go with no external dependencies.
package services
