package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

// SyncService keeps the corpus in step with plain-text files on disk.
// A file always maps to the same document ID, so re-reading it replaces
// the document instead of duplicating it.
type SyncService interface {
	// IngestFile ingests one file.
	IngestFile(ctx context.Context, path string, opts SyncOptions) (*IngestResult, error)

	// Sync ingests every supported file under root. Files whose content is
	// already stored are skipped. Per-file failures are reported, not returned.
	Sync(ctx context.Context, root string, opts SyncOptions) (*SyncReport, error)

	// Watch applies file changes under root until ctx is cancelled.
	// onEvent, when non-nil, is called after every applied change.
	Watch(ctx context.Context, root string, opts SyncOptions, onEvent func(SyncEvent)) error
}

// SyncOptions applies to every document produced by a sync.
type SyncOptions struct {
	// Topic tags every document.
	Topic string

	// Inactive stores documents without making them retrievable.
	Inactive bool
}

// SyncReport summarises a directory sync.
type SyncReport struct {
	// Files is the number of supported files found.
	Files int

	// Ingested counts files that were (re)ingested.
	Ingested int

	// Unchanged counts files whose stored content already matched.
	Unchanged int

	// Sections is the total number of sections written.
	Sections int

	// Failed maps file path to failure reason.
	Failed map[string]string

	// Duration is how long the sync took.
	Duration time.Duration
}

// SyncEvent describes one change applied while watching.
type SyncEvent struct {
	Type       domain.ChangeType
	Path       string
	DocumentID string
	Sections   int
	Err        error
}
