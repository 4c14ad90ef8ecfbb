// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Document and section persistence
//   - Sectioner: Splits document text into sections
//   - ConfigStore: Application configuration
//   - FileSource: Reads and watches a directory of study material
//   - Normaliser: Converts one file format to plain text
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingProvider: Produces vectors. Without it, retrieval scores lexically.
//   - AnswerGenerator: Turns a context bundle into prose. Without it, ask is disabled.
//   - PromptStore: Customisable prompt templates. Without it, built-in defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
