package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
	"github.com/custodia-labs/lexis/internal/logger"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusService = (*CorpusService)(nil)

// CorpusService turns the stored corpus into retrieval candidates.
type CorpusService struct {
	docStore driven.DocumentStore
	engine   driving.RetrievalEngine
	settings domain.RetrievalSettings
}

// NewCorpusService creates a corpus service.
func NewCorpusService(
	docStore driven.DocumentStore, engine driving.RetrievalEngine, settings domain.RetrievalSettings,
) *CorpusService {
	return &CorpusService{
		docStore: docStore,
		engine:   engine,
		settings: settings,
	}
}

// Retrieve loads active candidates and searches them.
func (s *CorpusService) Retrieve(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) (*domain.ContextBundle, error) {
	opts = opts.WithDefaults(s.settings)

	candidates, err := s.Candidates(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s.engine.Search(ctx, query, candidates, opts)
}

// Candidates returns the candidate set for the given options.
func (s *CorpusService) Candidates(ctx context.Context, opts domain.RetrievalOptions) ([]domain.Candidate, error) {
	filter := domain.DocumentFilter{ActiveOnly: true}
	if opts.RestrictTopic {
		filter.Topic = opts.Topic
	}

	docs, err := s.docStore.ListDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	if opts.Granularity == domain.GranularityDocument {
		candidates := make([]domain.Candidate, 0, len(docs))
		for i := range docs {
			d := &docs[i]
			candidates = append(candidates, domain.Candidate{
				UnitID:      d.ID,
				DocumentID:  d.ID,
				Title:       d.Title,
				Text:        d.Content,
				Topic:       d.Topic,
				Vector:      d.Embedding,
				VectorModel: d.EmbeddingModel,
			})
		}
		logger.Debug("Loaded %d document candidates", len(candidates))
		return candidates, nil
	}

	byID := make(map[string]*domain.Document, len(docs))
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
	}

	sections, err := s.docStore.ListSections(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(sections))
	for i := range sections {
		sec := &sections[i]
		doc, ok := byID[sec.DocumentID]
		if !ok {
			// Document changed between the two reads; skip its sections.
			continue
		}
		candidates = append(candidates, domain.Candidate{
			UnitID:      sec.ID,
			DocumentID:  doc.ID,
			Title:       doc.Title + ": " + sec.Title,
			Text:        sec.Content,
			Topic:       doc.Topic,
			Vector:      sec.Embedding,
			VectorModel: sec.EmbeddingModel,
		})
	}
	logger.Debug("Loaded %d section candidates from %d documents", len(candidates), len(docs))
	return candidates, nil
}
