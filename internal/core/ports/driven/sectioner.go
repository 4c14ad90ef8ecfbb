package driven

import (
	"context"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

// Sectioner partitions a document's content into ordered sections.
type Sectioner interface {
	// Name returns the sectioner name for logging.
	Name() string

	// Process returns the document's sections with IDs and positions assigned.
	// Content that yields no section returns an empty slice and no error.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Section, error)
}
