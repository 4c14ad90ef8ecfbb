package normalisers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
)

// Registry maps file extensions to normalisers.
// It is safe for concurrent use once built.
type Registry struct {
	byExt map[string]driven.Normaliser
}

// NewRegistry registers ns in order; a later normaliser wins an extension
// claimed by an earlier one.
func NewRegistry(ns ...driven.Normaliser) *Registry {
	r := &Registry{byExt: make(map[string]driven.Normaliser)}
	for _, n := range ns {
		for _, ext := range n.Extensions() {
			r.byExt[strings.ToLower(ext)] = n
		}
	}
	return r
}

// For returns the normaliser for path's extension.
func (r *Registry) For(path string) (driven.Normaliser, bool) {
	n, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return n, ok
}

// Supported reports whether any normaliser handles path.
func (r *Registry) Supported(path string) bool {
	_, ok := r.For(path)
	return ok
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Normalise runs the normaliser registered for path.
func (r *Registry) Normalise(raw []byte, path string) (*driven.NormaliseResult, error) {
	n, ok := r.For(path)
	if !ok {
		return nil, fmt.Errorf("%w: no normaliser for %q", domain.ErrInvalidInput, filepath.Ext(path))
	}
	return n.Normalise(raw, path)
}
