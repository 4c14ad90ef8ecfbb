// Package domain defines the core business entities for Lexis.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested reference text with its optional embedding
//   - Section: An addressable unit of a document, in document order
//   - Candidate: A unit offered to the retrieval engine for one query
//   - ContextBundle: The ranked, budgeted passages handed to a generator
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
