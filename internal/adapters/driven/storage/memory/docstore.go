package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/textnorm"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Values are copied in and out so callers cannot mutate stored state.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	sections  map[string][]domain.Section
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		sections:  make(map[string][]domain.Section),
	}
}

// ReplaceDocument stores a document and replaces its sections.
func (s *DocumentStore) ReplaceDocument(_ context.Context, doc *domain.Document, sections []domain.Section) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(sections))
	for _, sec := range sections {
		if sec.DocumentID != doc.ID {
			return fmt.Errorf("%w: section %s belongs to %q, not %q",
				domain.ErrIntegrity, sec.ID, sec.DocumentID, doc.ID)
		}
		if seen[sec.ID] {
			return fmt.Errorf("%w: duplicate section %s", domain.ErrIntegrity, sec.ID)
		}
		seen[sec.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	s.sections[doc.ID] = slices.Clone(sections)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetSections retrieves all sections for a document ordered by position.
func (s *DocumentStore) GetSections(_ context.Context, documentID string) ([]domain.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sections := slices.Clone(s.sections[documentID])
	slices.SortStableFunc(sections, func(a, b domain.Section) int { return a.Position - b.Position })
	return sections, nil
}

// ListDocuments returns documents matching the filter ordered by title.
func (s *DocumentStore) ListDocuments(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(filter), nil
}

// ListSections returns sections of matching documents ordered by
// document title then position.
func (s *DocumentStore) ListSections(_ context.Context, filter domain.DocumentFilter) ([]domain.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Section
	for _, doc := range s.listLocked(filter) {
		sections := slices.Clone(s.sections[doc.ID])
		slices.SortStableFunc(sections, func(a, b domain.Section) int { return a.Position - b.Position })
		result = append(result, sections...)
	}
	return result, nil
}

func (s *DocumentStore) listLocked(filter domain.DocumentFilter) []domain.Document {
	result := make([]domain.Document, 0, len(s.documents))
	topic := textnorm.TopicKey(filter.Topic)
	for _, doc := range s.documents {
		if filter.ActiveOnly && !doc.Active {
			continue
		}
		if topic != "" && textnorm.TopicKey(doc.Topic) != topic {
			continue
		}
		result = append(result, doc)
	}
	slices.SortFunc(result, func(a, b domain.Document) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result
}

// UpdateDocumentEmbedding replaces the stored vector of a document.
func (s *DocumentStore) UpdateDocumentEmbedding(_ context.Context, id, vector, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Embedding = vector
	doc.EmbeddingModel = model
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// UpdateSectionEmbedding replaces the stored vector of a section.
func (s *DocumentStore) UpdateSectionEmbedding(_ context.Context, id, vector, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for docID, sections := range s.sections {
		for i := range sections {
			if sections[i].ID == id {
				sections[i].Embedding = vector
				sections[i].EmbeddingModel = model
				s.sections[docID] = sections
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

// SetActive marks a document as eligible or ineligible for retrieval.
func (s *DocumentStore) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Active = active
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document and its sections.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.sections, id)
	return nil
}
