package driven

import "context"

// EmbeddingProvider turns text into a fixed-length vector.
// This is an optional collaborator - when nil, retrieval is lexical-only.
//
// Providers see only already-truncated input. Timeouts, caching and
// failure absorption belong to the embedding service wrapping them.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingProvider interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	// It is stored next to every vector the model produces.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
