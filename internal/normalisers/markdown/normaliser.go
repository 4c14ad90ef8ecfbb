// Package markdown normalises Markdown study notes into plain text while
// keeping heading lines, which the chunker uses as section boundaries.
package markdown

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	titlePattern  = regexp.MustCompile(`(?m)^[ \t]*#[ \t]+(.+?)[ \t#]*$`)
	fencePattern  = regexp.MustCompile("(?m)^[ \t]*(```|~~~).*$\n?")
	inlineCode    = regexp.MustCompile("`([^`\n]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headings      = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	strong        = regexp.MustCompile(`(\*\*|__)([^\n]+?)(\*\*|__)`)
	emphasis      = regexp.MustCompile(`(^|[^\w*])\*([^*\n]+)\*`)
	blockquote    = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	horizontal    = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bullets       = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Normalise strips Markdown syntax. The first level-one heading becomes the
// title. Numbered list markers are kept because statutes number their
// clauses that way.
func (n *Normaliser) Normalise(raw []byte, _ string) (*driven.NormaliseResult, error) {
	text := plaintext.Clean(raw)
	return &driven.NormaliseResult{
		Title:   extractTitle(text),
		Content: Strip(text),
		Format:  "markdown",
	}, nil
}

func extractTitle(content string) string {
	m := titlePattern.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(Strip(m[1]))
}

// Strip removes Markdown formatting from content.
func Strip(content string) string {
	content = fencePattern.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = horizontal.ReplaceAllString(content, "")
	content = headings.ReplaceAllString(content, "")
	content = strong.ReplaceAllString(content, "$2")
	content = emphasis.ReplaceAllString(content, "$1$2")
	content = blockquote.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "$1")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
