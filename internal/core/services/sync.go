package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
	"github.com/custodia-labs/lexis/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.SyncService = (*SyncService)(nil)

// Document metadata keys set for ingested files.
const (
	MetadataPath   = "path"
	MetadataFormat = "format"
)

// SyncService feeds files from disk through the ingestion service.
type SyncService struct {
	ingestion driving.IngestionService
	docStore  driven.DocumentStore
	open      driven.FileSourceFactory
	read      driven.FileReader
}

// NewSyncService creates a sync service.
func NewSyncService(
	ingestion driving.IngestionService,
	docStore driven.DocumentStore,
	open driven.FileSourceFactory,
	read driven.FileReader,
) *SyncService {
	return &SyncService{
		ingestion: ingestion,
		docStore:  docStore,
		open:      open,
		read:      read,
	}
}

// DocumentIDForPath derives the stable document ID of a file.
func DocumentIDForPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))).String()
}

// IngestFile ingests one file.
func (s *SyncService) IngestFile(
	ctx context.Context, path string, opts driving.SyncOptions,
) (*driving.IngestResult, error) {
	file, err := s.read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.ingest(ctx, file, opts)
}

// Sync ingests every supported file under root.
func (s *SyncService) Sync(
	ctx context.Context, root string, opts driving.SyncOptions,
) (*driving.SyncReport, error) {
	start := time.Now()
	src, err := s.open(root)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	logger.Section("Sync " + src.Root())
	report := &driving.SyncReport{Failed: make(map[string]string)}

	// Stops the walk when the loop returns early.
	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	files, errs := src.FullSync(walkCtx)
	for file := range files {
		report.Files++

		unchanged, err := s.unchanged(ctx, &file, opts)
		if err != nil {
			report.Failed[file.Path] = err.Error()
			continue
		}
		if unchanged {
			report.Unchanged++
			logger.Debug("unchanged: %s", file.Path)
			continue
		}

		result, err := s.ingest(ctx, &file, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, domain.ErrIntegrity) {
				return nil, err
			}
			report.Failed[file.Path] = err.Error()
			logger.Warn("sync %s: %v", file.Path, err)
			continue
		}
		report.Ingested++
		report.Sections += result.Sections
	}
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("walk %s: %w", src.Root(), err)
	}

	report.Duration = time.Since(start)
	logger.Info("Synced %s: %d files, %d ingested, %d unchanged, %d failed",
		src.Root(), report.Files, report.Ingested, report.Unchanged, len(report.Failed))
	return report, nil
}

// Watch applies file changes under root until ctx is cancelled.
func (s *SyncService) Watch(
	ctx context.Context, root string, opts driving.SyncOptions, onEvent func(driving.SyncEvent),
) error {
	src, err := s.open(root)
	if err != nil {
		return err
	}
	defer src.Close()

	changes, err := src.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Watching %s", src.Root())

	for change := range changes {
		event := s.apply(ctx, change, opts)
		if event.Err != nil {
			logger.Warn("%s %s: %v", change.Type, change.Path, event.Err)
		}
		if onEvent != nil {
			onEvent(event)
		}
	}

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *SyncService) apply(
	ctx context.Context, change domain.FileChange, opts driving.SyncOptions,
) driving.SyncEvent {
	event := driving.SyncEvent{
		Type:       change.Type,
		Path:       change.Path,
		DocumentID: DocumentIDForPath(change.Path),
	}

	if change.Type == domain.ChangeDeleted {
		err := s.ingestion.Delete(ctx, event.DocumentID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			event.Err = err
		}
		return event
	}

	if change.File == nil {
		event.Err = fmt.Errorf("%w: no file content", domain.ErrInvalidInput)
		return event
	}
	if unchanged, err := s.unchanged(ctx, change.File, opts); err == nil && unchanged {
		return event
	}
	result, err := s.ingest(ctx, change.File, opts)
	if err != nil {
		event.Err = err
		return event
	}
	event.Sections = result.Sections
	return event
}

func (s *SyncService) ingest(
	ctx context.Context, file *domain.SourceFile, opts driving.SyncOptions,
) (*driving.IngestResult, error) {
	return s.ingestion.Ingest(ctx, driving.IngestRequest{
		ID:       DocumentIDForPath(file.Path),
		Title:    file.Title,
		Content:  file.Content,
		Topic:    opts.Topic,
		Inactive: opts.Inactive,
		Metadata: fileMetadata(file),
	})
}

func fileMetadata(file *domain.SourceFile) map[string]any {
	meta := map[string]any{MetadataPath: file.Path}
	if file.Format != "" {
		meta[MetadataFormat] = file.Format
	}
	return meta
}

// unchanged reports whether the stored document already holds file's
// content under the same options.
func (s *SyncService) unchanged(
	ctx context.Context, file *domain.SourceFile, opts driving.SyncOptions,
) (bool, error) {
	doc, err := s.docStore.GetDocument(ctx, DocumentIDForPath(file.Path))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return doc.Content == file.Content && doc.Topic == opts.Topic && doc.Active == !opts.Inactive, nil
}
