// Package plaintext normalises .txt files.
package plaintext

import (
	"bytes"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/lexis/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Normaliser handles plain text files.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".txt", ".text"}
}

// Normalise strips a byte order mark, unifies line endings and composes
// Unicode to NFC so that "á" typed two ways compares equal.
// Plain text carries no title; callers fall back to the file name.
func (n *Normaliser) Normalise(raw []byte, _ string) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{
		Content: Clean(raw),
		Format:  "plaintext",
	}, nil
}

// Clean applies the plain text normalisation to raw.
func Clean(raw []byte) string {
	raw = bytes.TrimPrefix(raw, bom)
	s := strings.ReplaceAll(string(raw), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}
