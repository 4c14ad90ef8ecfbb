// Package chunker splits raw reference text into titled sections and
// long text into overlapping windows.
package chunker

import (
	"context"
	"fmt"
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
)

// DefaultMinSectionChars is the shortest structural section kept.
const DefaultMinSectionChars = 40

// DefaultMinParagraphChars is the shortest fallback paragraph kept.
const DefaultMinParagraphChars = 80

// headerPattern matches numbered structural markers at the start of a line,
// e.g. "Artículo 12", "ARTICLE 3", "Tema 7", "Topic 2".
var headerPattern = regexp.MustCompile(`(?im)^[ \t]*(art[ií]culo|article|tema|topic)[ \t]+(\d+)`)

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// Verify interface compliance at compile time.
var _ driven.Sectioner = (*Chunker)(nil)

// Chunker partitions documents into sections.
// It is stateless after construction and safe for concurrent use.
type Chunker struct {
	minSectionChars   int
	minParagraphChars int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMinSectionChars sets the minimum length of a structural section.
func WithMinSectionChars(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.minSectionChars = n
		}
	}
}

// WithMinParagraphChars sets the minimum length of a fallback paragraph.
func WithMinParagraphChars(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.minParagraphChars = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		minSectionChars:   DefaultMinSectionChars,
		minParagraphChars: DefaultMinParagraphChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the sectioner name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Section splits raw text into ordered sections.
// Structural markers are tried first; without any qualifying marker the text
// is split on blank lines. Positions start at 0. Empty or blank input yields
// no sections. Non-blank input always yields at least one section.
func (c *Chunker) Section(raw string) []domain.Section {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	if sections := c.structural(text); len(sections) > 0 {
		return sections
	}
	if sections := c.paragraphs(text); len(sections) > 0 {
		return sections
	}
	// Every paragraph was under the threshold: keep the whole text.
	return []domain.Section{{Title: "Section 1", Content: text, Position: 0}}
}

func (c *Chunker) structural(text string) []domain.Section {
	matches := headerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var sections []domain.Section
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[0]:end])
		if utf8.RuneCountInString(body) < c.minSectionChars {
			continue
		}
		sections = append(sections, domain.Section{
			Title:    fmt.Sprintf("%s %s", text[m[2]:m[3]], text[m[4]:m[5]]),
			Content:  body,
			Position: len(sections),
		})
	}
	return sections
}

func (c *Chunker) paragraphs(text string) []domain.Section {
	var sections []domain.Section
	for _, p := range blankLine.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" || utf8.RuneCountInString(p) < c.minParagraphChars {
			continue
		}
		sections = append(sections, domain.Section{
			Title:    fmt.Sprintf("Section %d", len(sections)+1),
			Content:  p,
			Position: len(sections),
		})
	}
	return sections
}

// Process sections a document and assigns section identities.
// A document without content produces no sections and no error; the
// caller decides whether that is a failure.
func (c *Chunker) Process(ctx context.Context, doc *domain.Document) ([]domain.Section, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sections := c.Section(doc.Content)
	for i := range sections {
		sections[i].ID = uuid.New().String()
		sections[i].DocumentID = doc.ID
	}
	return sections, nil
}

// Windows returns fixed-size overlapping substrings of text, measured in
// characters. Consecutive windows share exactly overlap characters. The
// sequence is lazy and may be ranged over repeatedly.
//
// An overlap that is negative or not smaller than maxChars is reduced to a
// quarter of maxChars. A non-positive maxChars yields nothing.
func Windows(text string, maxChars, overlap int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if maxChars <= 0 || text == "" {
			return
		}
		if overlap < 0 || overlap >= maxChars {
			overlap = maxChars / 4
		}
		step := maxChars - overlap

		r := []rune(text)
		for start := 0; ; start += step {
			end := min(start+maxChars, len(r))
			if !yield(string(r[start:end])) {
				return
			}
			if end == len(r) {
				return
			}
		}
	}
}

// Truncate cuts text to at most maxChars characters.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars])
}
