// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/lexis/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexis/internal/core/domain"
)

// PassageList displays the ranked passages of a context bundle.
type PassageList struct {
	items    []domain.ScoredCandidate
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPassageList creates an empty passage list.
func NewPassageList(s *styles.Styles) *PassageList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &PassageList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation messages.
func (p *PassageList) Update(msg tea.Msg) (*PassageList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			p.MoveUp()
		case "down", "j":
			p.MoveDown()
		}
	}
	return p, nil
}

// View renders the visible window of passages, one line each.
func (p *PassageList) View() string {
	if len(p.items) == 0 {
		return p.styles.Muted.Render("No passages")
	}

	lines := make([]string, 0, len(p.items)+2)
	lines = append(lines, p.styles.Subtitle.Render(fmt.Sprintf("Passages (%d)", len(p.items))), "")

	visible := max(p.height-2, 1)
	start := 0
	if p.selected >= visible {
		start = p.selected - visible + 1
	}
	end := min(start+visible, len(p.items))

	for i := start; i < end; i++ {
		lines = append(lines, p.renderItem(i, &p.items[i]))
	}
	return strings.Join(lines, "\n")
}

func (p *PassageList) renderItem(index int, item *domain.ScoredCandidate) string {
	indicator := "  "
	if index == p.selected {
		indicator = "> "
	}

	title := item.Title
	if title == "" {
		title = "(Untitled)"
	}
	maxTitle := max(p.width-16, 10)
	if r := []rune(title); len(r) > maxTitle {
		title = string(r[:maxTitle-3]) + "..."
	}

	score := fmt.Sprintf("%.2f", item.Score)
	method := p.styles.Method(item.Method == domain.ScoreVector).Render(methodGlyph(item.Method))

	if index == p.selected {
		return p.styles.Selected.Render(fmt.Sprintf("%s%-*s %s", indicator, maxTitle, title, score)) + " " + method
	}
	return p.styles.Normal.Render(fmt.Sprintf("%s%-*s ", indicator, maxTitle, title)) +
		p.styles.Muted.Render(score) + " " + method
}

func methodGlyph(m domain.ScoreMethod) string {
	if m == domain.ScoreVector {
		return "v"
	}
	return "l"
}

// SetItems replaces the list and resets the selection.
func (p *PassageList) SetItems(items []domain.ScoredCandidate) {
	p.items = items
	p.selected = 0
}

// Items returns the current passages.
func (p *PassageList) Items() []domain.ScoredCandidate {
	return p.items
}

// Selected returns the index of the selected passage.
func (p *PassageList) Selected() int {
	return p.selected
}

// SelectedItem returns the selected passage, or nil if the list is empty.
func (p *PassageList) SelectedItem() *domain.ScoredCandidate {
	if p.selected < 0 || p.selected >= len(p.items) {
		return nil
	}
	return &p.items[p.selected]
}

// MoveUp moves selection up.
func (p *PassageList) MoveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

// MoveDown moves selection down.
func (p *PassageList) MoveDown() {
	if p.selected < len(p.items)-1 {
		p.selected++
	}
}

// SetDimensions sets the component dimensions.
func (p *PassageList) SetDimensions(width, height int) {
	p.width = width
	p.height = height
}

// Count returns the number of passages.
func (p *PassageList) Count() int {
	return len(p.items)
}
