// Package filesystem reads plain-text study material from a local directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/logger"
	"github.com/custodia-labs/lexis/internal/normalisers"
	"github.com/custodia-labs/lexis/internal/normalisers/markdown"
	"github.com/custodia-labs/lexis/internal/normalisers/plaintext"
)

// Ensure Connector implements the interface.
var _ driven.FileSource = (*Connector)(nil)

// MaxFileSize skips files larger than this many bytes.
const MaxFileSize = 16 << 20

// formats selects the normaliser for each supported file type.
var formats = normalisers.NewRegistry(plaintext.New(), markdown.New())

// Connector reads plain-text files under a root directory.
type Connector struct {
	root string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// New creates a filesystem connector rooted at root.
func New(root string) (*Connector, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, abs)
	}
	return &Connector{root: abs}, nil
}

// Open adapts New to driven.FileSourceFactory.
func Open(root string) (driven.FileSource, error) {
	return New(root)
}

// Root returns the absolute directory being read.
func (c *Connector) Root() string {
	return c.root
}

// FullSync walks the root and streams every supported file.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.SourceFile, <-chan error) {
	files := make(chan domain.SourceFile)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if path != c.root && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !IsSupported(path) {
				return nil
			}

			file, err := ReadFile(path)
			if err != nil {
				logger.Warn("skipping %s: %v", path, err)
				return nil
			}

			select {
			case files <- *file:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// Watch reports file changes under the root, including new subdirectories.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(watcher, c.root); err != nil {
		watcher.Close()
		return nil, err
	}

	c.mu.Lock()
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan domain.FileChange)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				_ = c.Close()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change, ok := c.handleFsEvent(watcher, event)
				if !ok {
					continue
				}
				select {
				case changes <- change:
				case <-ctx.Done():
					_ = c.Close()
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch %s: %v", c.root, err)
			}
		}
	}()

	return changes, nil
}

// Close stops any active watch.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// handleFsEvent converts an fsnotify event to a change.
// It returns false for events that do not affect ingestable files.
func (c *Connector) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) (domain.FileChange, bool) {
	path := event.Name
	if isHidden(filepath.Base(path)) {
		return domain.FileChange{}, false
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !IsSupported(path) {
			return domain.FileChange{}, false
		}
		return domain.FileChange{Type: domain.ChangeDeleted, Path: path}, true

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return domain.FileChange{}, false
		}
		if info.IsDir() {
			if event.Has(fsnotify.Create) {
				if err := addTree(watcher, path); err != nil {
					logger.Warn("watch %s: %v", path, err)
				}
			}
			return domain.FileChange{}, false
		}
		if !IsSupported(path) {
			return domain.FileChange{}, false
		}
		file, err := ReadFile(path)
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return domain.FileChange{}, false
		}
		changeType := domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		return domain.FileChange{Type: changeType, Path: path, File: file}, true
	}

	return domain.FileChange{}, false
}

// ReadFile loads a supported text file.
func ReadFile(path string) (*domain.SourceFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, MaxFileSize)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrInvalidInput, filepath.Base(abs))
	}
	result, err := formats.Normalise(data, abs)
	if err != nil {
		return nil, err
	}
	title := result.Title
	if title == "" {
		title = TitleFromPath(abs)
	}
	return &domain.SourceFile{
		Path:    abs,
		Title:   title,
		Content: result.Content,
		Format:  result.Format,
		ModTime: info.ModTime(),
	}, nil
}

// IsSupported reports whether a normaliser handles path's extension.
func IsSupported(path string) bool {
	return formats.Supported(path)
}

// TitleFromPath turns "ley_general-seguridad.md" into "ley general seguridad".
func TitleFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
