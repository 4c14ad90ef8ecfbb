package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

func testBundle() *domain.ContextBundle {
	return &domain.ContextBundle{
		Query: "notice period",
		Items: []domain.ScoredCandidate{
			{UnitID: "s1", DocumentID: "d1", Title: "Art. 5", Text: "The notice period is thirty days.",
				Score: 0.9, Method: domain.ScoreVector},
			{UnitID: "s2", DocumentID: "d1", Title: "Art. 6", Text: "Severance pay equals one salary.",
				Score: 0.4, Method: domain.ScoreLexical},
		},
		TotalChars: 65,
		Budget:     4000,
	}
}

func newTestApp(t *testing.T, corpus *MockCorpusService, ask driving.AskService) *App {
	t.Helper()
	ports := &Ports{Corpus: corpus}
	if ask != nil {
		ports.Ask = ask
	}
	app, err := NewApp(ports, domain.RetrievalOptions{Topic: "labour"})
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func typeText(app *App, text string) {
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// runCmd executes a command and feeds its message back into the app.
func runCmd(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	app.Update(cmd())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{}, domain.RetrievalOptions{})

	assert.ErrorIs(t, err, ErrMissingCorpusService)
	assert.Nil(t, app)
}

func TestApp_InitialState(t *testing.T) {
	app, err := NewApp(&Ports{Corpus: &MockCorpusService{}}, domain.RetrievalOptions{})
	require.NoError(t, err)

	assert.Equal(t, messages.FocusInput, app.Focus())
	assert.False(t, app.Ready())
	assert.Equal(t, "Loading...", app.View())
	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Corpus: &MockCorpusService{}}, domain.RetrievalOptions{})
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
}

func TestApp_SearchFlow(t *testing.T) {
	corpus := &MockCorpusService{Bundle: testBundle()}
	app := newTestApp(t, corpus, nil)

	typeText(app, "notice period")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, app, cmd)

	assert.Equal(t, 1, corpus.Calls)
	assert.Equal(t, "labour", corpus.LastOpts.Topic)
	assert.Equal(t, "notice period", app.Query())
	assert.Equal(t, messages.FocusResults, app.Focus())
	require.NotNil(t, app.Bundle())
	assert.Len(t, app.Bundle().Items, 2)

	view := app.View()
	assert.Contains(t, view, "Art. 5")
	assert.Contains(t, view, "thirty days")

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Contains(t, app.View(), "Severance")
}

func TestApp_EmptyQueryDoesNothing(t *testing.T) {
	corpus := &MockCorpusService{}
	app := newTestApp(t, corpus, nil)

	typeText(app, "   ")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, 0, corpus.Calls)
	assert.Equal(t, messages.FocusInput, app.Focus())
}

func TestApp_RetrievalError(t *testing.T) {
	app := newTestApp(t, &MockCorpusService{}, nil)

	app.Update(messages.RetrievalCompleted{Query: "q", Err: errors.New("store closed")})

	require.Error(t, app.Err())
	assert.Equal(t, messages.FocusInput, app.Focus())
	assert.Contains(t, app.View(), "store closed")
}

func TestApp_AskFlow(t *testing.T) {
	ask := &MockAskService{Result: &driving.Answer{Text: "Thirty days.", Bundle: testBundle()}}
	app := newTestApp(t, &MockCorpusService{Bundle: testBundle()}, ask)

	typeText(app, "notice")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, app, cmd)

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	runCmd(t, app, cmd)

	assert.Equal(t, messages.FocusAnswer, app.Focus())
	assert.Equal(t, "Thirty days.", app.Answer())
	assert.Contains(t, app.View(), "Thirty days.")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.FocusResults, app.Focus())
}

func TestApp_UngroundedAnswerIsMarked(t *testing.T) {
	ask := &MockAskService{Result: &driving.Answer{Text: "General.", Bundle: &domain.ContextBundle{}}}
	app := newTestApp(t, &MockCorpusService{Bundle: testBundle()}, ask)
	app.Update(messages.RetrievalCompleted{Query: "q", Bundle: testBundle()})

	app.Update(messages.AnswerCompleted{Answer: ask.Result})

	assert.Contains(t, app.Answer(), "answered without context")
}

func TestApp_AskWithoutProvider(t *testing.T) {
	app := newTestApp(t, &MockCorpusService{Bundle: testBundle()}, nil)
	typeText(app, "notice")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, app, cmd)

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})

	assert.Nil(t, cmd)
	assert.Contains(t, app.View(), "no LLM provider configured")
}

func TestApp_ToggleGranularityReruns(t *testing.T) {
	corpus := &MockCorpusService{Bundle: testBundle()}
	app := newTestApp(t, corpus, nil)
	typeText(app, "notice")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(t, app, cmd)

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	runCmd(t, app, cmd)

	assert.Equal(t, 2, corpus.Calls)
	assert.Equal(t, domain.GranularityDocument, corpus.LastOpts.Granularity)
	assert.Contains(t, app.View(), "document")
}

func TestApp_NewSearchRefocusesInput(t *testing.T) {
	app := newTestApp(t, &MockCorpusService{Bundle: testBundle()}, nil)
	app.Update(messages.RetrievalCompleted{Query: "q", Bundle: testBundle()})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})

	assert.Equal(t, messages.FocusInput, app.Focus())
}

func TestApp_Quit(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*App)
		key   tea.KeyMsg
	}{
		{"ctrl+c from input", func(*App) {}, tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"esc from empty input", func(*App) {}, tea.KeyMsg{Type: tea.KeyEsc}},
		{"q from results", func(a *App) {
			a.Update(messages.RetrievalCompleted{Query: "q", Bundle: testBundle()})
		}, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, &MockCorpusService{}, nil)
			tt.setup(app)

			_, cmd := app.Update(tt.key)

			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
		})
	}
}

func TestHighlightTerms(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		query string
		want  string
	}{
		{"no query", "Notice period.", "", "Notice period."},
		{"no match keeps text", "Severance pay.", "notice", "Severance pay."},
		{"match keeps words", "The notice period.", "NOTICE", "The notice period."},
	}

	app := newTestApp(t, &MockCorpusService{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, highlightTerms(tt.text, tt.query, app.styles.Highlight))
		})
	}
}
