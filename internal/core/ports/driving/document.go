package driving

import (
	"context"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

// DocumentService exposes read-only views of the corpus.
type DocumentService interface {
	// List returns documents matching the filter.
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Sections returns a document's sections in order.
	Sections(ctx context.Context, documentID string) ([]domain.Section, error)
}
