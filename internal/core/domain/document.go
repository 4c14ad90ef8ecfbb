package domain

import "time"

// Document represents an ingested reference text.
// It is owned by the ingestion pipeline; retrieval only reads it.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// Content is the full raw text handed over by the extraction step.
	Content string

	// Topic is an optional category tag used for filtering and boosting.
	Topic string

	// Embedding is the serialized whole-document vector (JSON array).
	// Empty when the provider was unavailable at ingestion time.
	Embedding string

	// EmbeddingModel names the model that produced Embedding.
	EmbeddingModel string

	// Active marks the document as eligible for retrieval.
	Active bool

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// ProcessedAt is when the document was last sectioned and embedded.
	ProcessedAt time.Time

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// HasEmbedding reports whether a vector was stored for the given model.
func (d *Document) HasEmbedding(model string) bool {
	return d.Embedding != "" && d.EmbeddingModel == model
}

// Section is an addressable unit within a document.
// Sections are deleted together with their document.
type Section struct {
	// ID is the unique identifier for the section.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Title is taken from the structural marker, or "Section N" on fallback.
	Title string

	// Content is the text of this section.
	Content string

	// Position is the ordinal position within the document, starting at 0.
	Position int

	// Embedding is the optional serialized section vector.
	Embedding string

	// EmbeddingModel names the model that produced Embedding.
	EmbeddingModel string
}

// DocumentFilter narrows store listings.
type DocumentFilter struct {
	// Topic restricts results to one topic tag. Empty means all topics.
	Topic string

	// ActiveOnly skips deactivated documents.
	ActiveOnly bool
}
