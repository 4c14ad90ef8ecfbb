package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes read-only views of the corpus.
type DocumentService struct {
	docStore driven.DocumentStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore) *DocumentService {
	return &DocumentService{docStore: docStore}
}

// List returns documents matching the filter.
func (s *DocumentService) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx, filter)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// Sections returns a document's sections in order.
// Unknown documents return domain.ErrNotFound rather than an empty list.
func (s *DocumentService) Sections(ctx context.Context, documentID string) ([]domain.Section, error) {
	if _, err := s.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.docStore.GetSections(ctx, documentID)
}
