package driving

import (
	"context"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

// RetrievalEngine scores, ranks and packs candidates for one query.
type RetrievalEngine interface {
	// Search builds a context bundle from the supplied candidates.
	// Provider failures and malformed vectors degrade the ranking but never
	// produce an error; only context cancellation is returned.
	Search(ctx context.Context, query string, candidates []domain.Candidate,
		opts domain.RetrievalOptions) (*domain.ContextBundle, error)
}

// CorpusService retrieves context from the stored corpus.
type CorpusService interface {
	// Retrieve loads active candidates (filtered by opts.Topic) at the
	// requested granularity and searches them.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.ContextBundle, error)
}
