package driving

import (
	"context"
	"time"
)

// IngestionService writes documents into the corpus.
type IngestionService interface {
	// Ingest sections, embeds and persists a document, replacing any
	// previous version with the same ID. Embedding failures are absorbed.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// Delete removes a document and its sections.
	Delete(ctx context.Context, documentID string) error

	// SetActive marks a document as eligible or ineligible for retrieval.
	SetActive(ctx context.Context, documentID string, active bool) error

	// Reconcile embeds documents and sections whose vectors are missing or
	// were produced by a different model. Each document is independent.
	Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error)
}

// IngestRequest describes a document handed over by text extraction.
type IngestRequest struct {
	// ID replaces an existing document when set. A new ID is generated otherwise.
	ID string

	// Title is the human-readable title.
	Title string

	// Content is the raw extracted text.
	Content string

	// Topic is an optional category tag.
	Topic string

	// Inactive stores the document without making it retrievable.
	Inactive bool

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any
}

// IngestResult summarises one ingestion.
type IngestResult struct {
	// DocumentID is the stored document's ID.
	DocumentID string

	// Sections is the number of sections written.
	Sections int

	// DocumentEmbedded is true when a whole-document vector was stored.
	DocumentEmbedded bool

	// SectionsEmbedded counts sections that received a vector.
	SectionsEmbedded int

	// Replaced is true when an earlier version was overwritten.
	Replaced bool
}

// ReconcileOptions scopes a reconciliation pass.
type ReconcileOptions struct {
	// Topic restricts the pass to one topic. Empty means all documents.
	Topic string

	// Concurrency bounds parallel documents. Zero uses the service default.
	Concurrency int
}

// ReconcileReport summarises a reconciliation pass.
type ReconcileReport struct {
	// Checked is the number of documents examined.
	Checked int

	// Embedded counts documents whose vectors were refreshed.
	Embedded int

	// Skipped counts documents already up to date.
	Skipped int

	// Failed maps document IDs to the reason they could not be embedded.
	Failed map[string]string

	// Duration is the wall-clock time of the pass.
	Duration time.Duration
}
