package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates the chunker produced no sections.
	// Ingestion treats it as a failure of that document only.
	ErrEmptyDocument = errors.New("document produced no sections")

	// ErrIntegrity indicates a Document/Section referential inconsistency.
	// It is the only ingestion failure that must reach the caller as fatal.
	ErrIntegrity = errors.New("document integrity violation")

	// ErrEmbeddingUnavailable indicates the embedding provider could not produce a vector.
	// Callers degrade: ingestion persists without a vector, retrieval scores lexically.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrMalformedVector indicates a stored vector could not be deserialized.
	ErrMalformedVector = errors.New("malformed stored vector")

	// ErrModelMismatch indicates a stored vector came from a different embedding model.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrLLMUnavailable indicates the answer generator is not configured.
	// Retrieval keeps working; only ask and question generation are disabled.
	ErrLLMUnavailable = errors.New("answer generator unavailable")
)
