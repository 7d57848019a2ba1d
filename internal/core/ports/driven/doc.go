// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RowStore: Streams row Items and persists materialized signal outputs
//   - VectorStore: Stores and retrieves embedding vectors by VectorKey
//
// # Optional Interfaces
//
//   - EmbeddingService: Generates embedding vectors from text. Only needed
//     when an embedding-producer signal is backed by an external model.
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
