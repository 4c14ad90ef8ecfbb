package driven

import (
	"context"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

// FileSource enumerates and watches plain-text files under a root directory.
type FileSource interface {
	// Root returns the absolute directory being read.
	Root() string

	// FullSync streams every supported file under the root.
	// Both channels are closed when the walk ends.
	FullSync(ctx context.Context) (<-chan domain.SourceFile, <-chan error)

	// Watch streams changes until ctx is cancelled or Close is called.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Close stops any active watch.
	Close() error
}

// FileSourceFactory opens a FileSource for a directory.
type FileSourceFactory func(root string) (FileSource, error)

// FileReader loads a single supported text file.
type FileReader func(path string) (*domain.SourceFile, error)
