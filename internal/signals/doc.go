// Package signals provides built-in signal implementations: a sentence
// splitter, a text statistics signal, and an embedding signal backed by
// an external embedding service. Sessions register these (or their own)
// in a signal registry before querying.
package signals
