package driven

import (
	"context"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

// DocumentStore persists documents and their sections.
// Retrieval only reads from it; ingestion is the single writer.
type DocumentStore interface {
	// ReplaceDocument stores a document and replaces all of its sections.
	// It is atomic: on failure the previous document and sections remain.
	// Every section must reference doc.ID, otherwise domain.ErrIntegrity is returned.
	ReplaceDocument(ctx context.Context, doc *domain.Document, sections []domain.Section) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetSections retrieves all sections of a document ordered by position.
	GetSections(ctx context.Context, documentID string) ([]domain.Section, error)

	// ListDocuments returns documents matching the filter, ordered by title.
	ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// ListSections returns sections of documents matching the filter,
	// ordered by document title then position.
	ListSections(ctx context.Context, filter domain.DocumentFilter) ([]domain.Section, error)

	// UpdateDocumentEmbedding replaces the stored vector of a document.
	UpdateDocumentEmbedding(ctx context.Context, id, vector, model string) error

	// UpdateSectionEmbedding replaces the stored vector of a section.
	UpdateSectionEmbedding(ctx context.Context, id, vector, model string) error

	// SetActive marks a document as eligible or ineligible for retrieval.
	SetActive(ctx context.Context, id string, active bool) error

	// DeleteDocument removes a document and its sections.
	DeleteDocument(ctx context.Context, id string) error
}
