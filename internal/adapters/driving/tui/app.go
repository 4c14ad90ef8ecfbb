package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexis/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/lexis/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/lexis/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/lexis/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/lexis/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexis/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/textnorm"
)

// listWidthRatio is the share of the terminal given to the passage list.
const listWidthRatio = 0.35

// App is the explorer following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	opts   domain.RetrievalOptions
	styles *styles.Styles
	keymap *keymap.KeyMap

	input    *input.QueryInput
	passages *list.PassageList
	viewport viewport.Model
	status   *status.Bar

	focus  messages.Focus
	query  string
	bundle *domain.ContextBundle
	answer string
	err    error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the explorer. opts seeds every retrieval; the granularity
// can be toggled at runtime.
func NewApp(ports *Ports, opts domain.RetrievalOptions) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:    ports,
		ctx:      context.Background(),
		opts:     opts,
		styles:   s,
		keymap:   km,
		input:    input.NewQueryInput(s),
		passages: list.NewPassageList(s),
		viewport: viewport.New(0, 0),
		status:   status.NewBar(s, km),
		focus:    messages.FocusInput,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.input.Init(),
		tea.SetWindowTitle("lexis - explore"),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case messages.RetrievalCompleted:
		return a.handleRetrieval(msg), nil

	case messages.AnswerCompleted:
		return a.handleAnswer(msg), nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		if a.focus == messages.FocusInput {
			return a.updateInput(msg)
		}
		return a.updateResults(msg)
	}

	// cursor blink and other component ticks
	if a.focus == messages.FocusInput {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), a.keymap.Search):
		query := strings.TrimSpace(a.input.Value())
		if query == "" {
			return a, nil
		}
		a.query = query
		a.status.SetState(status.StateSearching)
		return a, a.retrieve(query)

	case keymap.Matches(msg.String(), a.keymap.Back):
		if a.bundle != nil {
			a.setFocus(messages.FocusResults)
			return a, nil
		}
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(key, a.keymap.NewSearch):
		a.setFocus(messages.FocusInput)
		return a, a.input.Focus()

	case keymap.Matches(key, a.keymap.Back):
		if a.focus == messages.FocusAnswer {
			a.setFocus(messages.FocusResults)
			a.refreshViewport()
			return a, nil
		}
		a.setFocus(messages.FocusInput)
		return a, a.input.Focus()

	case keymap.Matches(key, a.keymap.Ask):
		if a.ports.Ask == nil || a.query == "" {
			a.status.SetState(status.StateError)
			a.status.SetMessage("no LLM provider configured")
			return a, nil
		}
		a.status.SetState(status.StateAsking)
		return a, a.ask(a.query)

	case keymap.Matches(key, a.keymap.Granularity):
		if a.opts.Granularity == domain.GranularityDocument {
			a.opts.Granularity = domain.GranularitySection
		} else {
			a.opts.Granularity = domain.GranularityDocument
		}
		if a.query == "" {
			return a, nil
		}
		a.status.SetState(status.StateSearching)
		return a, a.retrieve(a.query)

	case keymap.Matches(key, a.keymap.ScrollUp):
		a.viewport.SetYOffset(a.viewport.YOffset - a.viewport.Height/2)
		return a, nil

	case keymap.Matches(key, a.keymap.ScrollDown):
		a.viewport.SetYOffset(a.viewport.YOffset + a.viewport.Height/2)
		return a, nil
	}

	if a.focus == messages.FocusResults {
		a.passages, _ = a.passages.Update(msg)
		a.refreshViewport()
	}
	return a, nil
}

func (a *App) handleRetrieval(msg messages.RetrievalCompleted) *App {
	if msg.Err != nil {
		a.err = msg.Err
		a.status.SetState(status.StateError)
		a.status.SetMessage(msg.Err.Error())
		return a
	}
	a.err = nil
	a.bundle = msg.Bundle
	a.answer = ""
	a.passages.SetItems(msg.Bundle.Items)
	a.status.SetBundle(msg.Bundle)
	a.status.SetState(status.StateResults)
	a.setFocus(messages.FocusResults)
	a.refreshViewport()
	return a
}

func (a *App) handleAnswer(msg messages.AnswerCompleted) *App {
	if msg.Err != nil {
		a.err = msg.Err
		a.status.SetState(status.StateError)
		a.status.SetMessage(msg.Err.Error())
		return a
	}
	a.err = nil
	a.answer = msg.Answer.Text
	if !msg.Answer.Grounded() {
		a.answer += "\n\n" + a.styles.Warning.Render("No corpus passage matched; answered without context.")
	}
	a.status.SetState(status.StateResults)
	a.setFocus(messages.FocusAnswer)
	a.refreshViewport()
	return a
}

func (a *App) retrieve(query string) tea.Cmd {
	ctx, corpus, opts := a.ctx, a.ports.Corpus, a.opts
	return func() tea.Msg {
		bundle, err := corpus.Retrieve(ctx, query, opts)
		return messages.RetrievalCompleted{Query: query, Bundle: bundle, Err: err}
	}
}

func (a *App) ask(query string) tea.Cmd {
	ctx, asker, opts := a.ctx, a.ports.Ask, a.opts
	return func() tea.Msg {
		answer, err := asker.Answer(ctx, query, opts)
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

func (a *App) setFocus(f messages.Focus) {
	a.focus = f
	if f == messages.FocusInput {
		a.status.SetState(status.StateReady)
		return
	}
	a.input.Blur()
}

// refreshViewport renders the selected passage or the answer.
func (a *App) refreshViewport() {
	a.viewport.SetContent(a.viewportContent())
	a.viewport.GotoTop()
}

func (a *App) viewportContent() string {
	if a.focus == messages.FocusAnswer {
		return a.styles.Subtitle.Render("Answer") + "\n\n" + a.answer
	}
	item := a.passages.SelectedItem()
	if item == nil {
		return a.styles.Muted.Render("No passage selected.")
	}
	header := a.styles.Subtitle.Render(item.Title) + "\n" +
		a.styles.Muted.Render(fmt.Sprintf("document %s  score %.3f  %s", item.DocumentID, item.Score, item.Method))
	body := highlightTerms(item.Text, a.query, a.styles.Highlight)
	return header + "\n\n" + lipgloss.NewStyle().Width(max(a.viewport.Width-2, 20)).Render(body)
}

// highlightTerms renders words of text that share a folded form with a
// query term.
func highlightTerms(text, query string, style lipgloss.Style) string {
	terms := textnorm.TermSet(query)
	if len(terms) == 0 {
		return text
	}
	words := strings.Fields(text)
	for i, w := range words {
		for _, tok := range textnorm.Tokens(w) {
			if _, ok := terms[tok]; ok {
				words[i] = style.Render(w)
				break
			}
		}
	}
	return strings.Join(words, " ")
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := a.styles.Title.Render("lexis") + " " + a.styles.Muted.Render(a.scopeLabel())
	query := a.input.View()
	if a.focus != messages.FocusInput && a.query != "" {
		query = a.styles.Muted.Render("Query: ") + a.styles.Normal.Render(a.query)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		a.passages.View(),
		"  ",
		a.styles.Passage.Render(a.viewport.View()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, query, "", body, a.status.View())
}

func (a *App) scopeLabel() string {
	parts := []string{string(a.granularity())}
	if a.opts.Topic != "" {
		t := "topic " + a.opts.Topic
		if a.opts.RestrictTopic {
			t += " (only)"
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, ", ")
}

func (a *App) granularity() domain.Granularity {
	if a.opts.Granularity == "" {
		return domain.GranularitySection
	}
	return a.opts.Granularity
}

// SetDimensions lays out the panes for a terminal of the given size.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	// header, query box (3 lines), spacer, status
	bodyHeight := max(height-7, 3)
	listWidth := max(int(float64(width)*listWidthRatio), 20)

	a.input.SetWidth(width)
	a.passages.SetDimensions(listWidth, bodyHeight)
	frameW, frameH := a.styles.Passage.GetFrameSize()
	a.viewport.Width = max(width-listWidth-2-frameW, 20)
	a.viewport.Height = max(bodyHeight-frameH, 3)
	a.status.SetWidth(width)
	a.viewport.SetContent(a.viewportContent())
}

// Run starts the explorer and blocks until the user quits.
func Run(ctx context.Context, ports *Ports, opts domain.RetrievalOptions) error {
	app, err := NewApp(ports, opts)
	if err != nil {
		return err
	}
	app.WithContext(ctx)
	_, err = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// Focus returns the pane receiving key input.
func (a *App) Focus() messages.Focus { return a.focus }

// Query returns the last submitted query.
func (a *App) Query() string { return a.query }

// Bundle returns the last retrieved bundle.
func (a *App) Bundle() *domain.ContextBundle { return a.bundle }

// Answer returns the last generated answer text.
func (a *App) Answer() string { return a.answer }

// Err returns the last error.
func (a *App) Err() error { return a.err }

// Ready reports whether the first window size has been received.
func (a *App) Ready() bool { return a.ready }

// Options returns the retrieval options used for the next search.
func (a *App) Options() domain.RetrievalOptions { return a.opts }
