package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
	"github.com/custodia-labs/lexis/internal/logger"
	"github.com/custodia-labs/lexis/internal/metrics"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// DefaultReconcileConcurrency bounds documents embedded in parallel.
const DefaultReconcileConcurrency = 4

// IngestionService chunks, embeds and persists documents.
type IngestionService struct {
	docStore      driven.DocumentStore
	sectioner     driven.Sectioner
	embeddings    *EmbeddingService
	embedSections bool
	metrics       *metrics.Metrics
	now           func() time.Time
}

// NewIngestionService creates an ingestion service.
// The embeddings and metrics parameters are optional (can be nil); without
// embeddings documents are stored vector-less until reconciled.
func NewIngestionService(
	docStore driven.DocumentStore,
	sectioner driven.Sectioner,
	embeddings *EmbeddingService,
	embedSections bool,
	m *metrics.Metrics,
) *IngestionService {
	return &IngestionService{
		docStore:      docStore,
		sectioner:     sectioner,
		embeddings:    embeddings,
		embedSections: embedSections,
		metrics:       m,
		now:           time.Now,
	}
}

// Ingest sections, embeds and persists a document.
// It fails with domain.ErrEmptyDocument when no section can be derived and
// passes store errors through. Embedding failures are logged and absorbed.
func (s *IngestionService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	logger.Section("Ingest " + id)

	now := s.now()
	doc := &domain.Document{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Topic:       strings.TrimSpace(req.Topic),
		Active:      !req.Inactive,
		Metadata:    req.Metadata,
		ProcessedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result := &driving.IngestResult{DocumentID: id}
	existing, err := s.docStore.GetDocument(ctx, id)
	switch {
	case err == nil:
		doc.CreatedAt = existing.CreatedAt
		result.Replaced = true
	case !errors.Is(err, domain.ErrNotFound):
		s.metrics.RecordIngestion("failed")
		return nil, fmt.Errorf("get document: %w", err)
	}

	sections, err := s.sectioner.Process(ctx, doc)
	if err != nil {
		s.metrics.RecordIngestion("failed")
		return nil, fmt.Errorf("section document: %w", err)
	}
	if len(sections) == 0 {
		s.metrics.RecordIngestion("empty")
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, id)
	}
	logger.Debug("%s produced %d sections", s.sectioner.Name(), len(sections))

	if s.embeddings.Available() {
		result.DocumentEmbedded = s.embedDocument(ctx, doc)
		if s.embedSections {
			for i := range sections {
				if s.embedSection(ctx, &sections[i]) {
					result.SectionsEmbedded++
				}
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.docStore.ReplaceDocument(ctx, doc, sections); err != nil {
		s.metrics.RecordIngestion("failed")
		return nil, fmt.Errorf("store document: %w", err)
	}
	result.Sections = len(sections)

	s.metrics.RecordIngestion("ok")
	logger.Info("Ingested %s: %d sections, document vector=%t, %d section vectors",
		id, result.Sections, result.DocumentEmbedded, result.SectionsEmbedded)
	return result, nil
}

// embedDocument stores the whole-document vector on doc. It reports success.
func (s *IngestionService) embedDocument(ctx context.Context, doc *domain.Document) bool {
	vec, err := s.embeddings.EmbedDocument(ctx, doc.Content)
	if err != nil {
		logger.Warn("Document %s stored without vector: %v", doc.ID, err)
		return false
	}
	encoded, err := EncodeVector(vec)
	if err != nil {
		logger.Warn("Document %s stored without vector: %v", doc.ID, err)
		return false
	}
	doc.Embedding = encoded
	doc.EmbeddingModel = s.embeddings.ModelName()
	return true
}

// embedSection stores a section vector on sec. It reports success.
func (s *IngestionService) embedSection(ctx context.Context, sec *domain.Section) bool {
	vec, err := s.embeddings.Embed(ctx, sec.Content)
	if err != nil {
		logger.Debug("Section %s stored without vector: %v", sec.ID, err)
		return false
	}
	encoded, err := EncodeVector(vec)
	if err != nil {
		return false
	}
	sec.Embedding = encoded
	sec.EmbeddingModel = s.embeddings.ModelName()
	return true
}

// Delete removes a document and its sections.
func (s *IngestionService) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	return s.docStore.DeleteDocument(ctx, documentID)
}

// SetActive marks a document as eligible or ineligible for retrieval.
func (s *IngestionService) SetActive(ctx context.Context, documentID string, active bool) error {
	if documentID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	return s.docStore.SetActive(ctx, documentID, active)
}

// Reconcile embeds vectors that are missing or from another model.
// Documents are processed independently; a failure is recorded in the
// report and does not stop the pass. Only cancellation aborts it.
func (s *IngestionService) Reconcile(
	ctx context.Context, opts driving.ReconcileOptions,
) (*driving.ReconcileReport, error) {
	if !s.embeddings.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	logger.Section("Reconcile")
	start := s.now()

	docs, err := s.docStore.ListDocuments(ctx, domain.DocumentFilter{Topic: opts.Topic})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultReconcileConcurrency
	}

	report := &driving.ReconcileReport{
		Checked: len(docs),
		Failed:  make(map[string]string),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range docs {
		doc := &docs[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			changed, err := s.reconcileDocument(gctx, doc)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed[doc.ID] = err.Error()
				logger.Warn("Reconcile %s: %v", doc.ID, err)
			case changed:
				report.Embedded++
			default:
				report.Skipped++
			}
			return nil
		})
	}
	err = g.Wait()
	report.Duration = s.now().Sub(start)
	if err != nil {
		return report, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return report, ctxErr
	}

	logger.Info("Reconciled %d documents: %d embedded, %d skipped, %d failed",
		report.Checked, report.Embedded, report.Skipped, len(report.Failed))
	return report, nil
}

// reconcileDocument refreshes stale vectors of one document.
func (s *IngestionService) reconcileDocument(ctx context.Context, doc *domain.Document) (bool, error) {
	model := s.embeddings.ModelName()
	changed := false

	if !doc.HasEmbedding(model) {
		if !s.embedDocument(ctx, doc) {
			return false, domain.ErrEmbeddingUnavailable
		}
		if err := s.docStore.UpdateDocumentEmbedding(ctx, doc.ID, doc.Embedding, doc.EmbeddingModel); err != nil {
			return false, fmt.Errorf("update document embedding: %w", err)
		}
		changed = true
	}

	if !s.embedSections {
		return changed, nil
	}

	sections, err := s.docStore.GetSections(ctx, doc.ID)
	if err != nil {
		return changed, fmt.Errorf("get sections: %w", err)
	}
	var errs []error
	for i := range sections {
		sec := &sections[i]
		if sec.Embedding != "" && sec.EmbeddingModel == model {
			continue
		}
		if !s.embedSection(ctx, sec) {
			errs = append(errs, fmt.Errorf("section %s: %w", sec.ID, domain.ErrEmbeddingUnavailable))
			continue
		}
		if err := s.docStore.UpdateSectionEmbedding(ctx, sec.ID, sec.Embedding, sec.EmbeddingModel); err != nil {
			errs = append(errs, fmt.Errorf("update section %s: %w", sec.ID, err))
			continue
		}
		changed = true
	}
	return changed, errors.Join(errs...)
}
