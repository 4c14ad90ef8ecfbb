package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

func sampleBundle() *domain.ContextBundle {
	return &domain.ContextBundle{
		Query: "notice period",
		Items: []domain.ScoredCandidate{
			{UnitID: "s1", DocumentID: "d1", Title: "Art. 5 Notice", Text: "The notice   period\nis thirty days.",
				Score: 0.87, Method: domain.ScoreVector},
		},
		TotalChars: 32,
		Budget:     4000,
		Stats:      domain.BundleStats{Considered: 12, BelowThreshold: 11},
	}
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestSearchCmd_HasRetrievalFlags(t *testing.T) {
	for _, name := range []string{"topic", "only-topic", "budget", "top-k", "min-score", "no-min-score", "no-topic-boost", "granularity", "json", "context"} {
		assert.NotNil(t, searchCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "b", searchCmd.Flags().Lookup("budget").Shorthand)
}

func TestSearchCmd_PrintsPassages(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.corpus.bundle = sampleBundle()

	out, err := execute("search", "notice", "period")

	require.NoError(t, err)
	assert.Equal(t, "notice period", ts.corpus.gotQuery)
	assert.Contains(t, out, "[1] Art. 5 Notice (0.87, vector)")
	assert.Contains(t, out, "The notice period is thirty days.")
	assert.Contains(t, out, "Context: 32/4000 chars, 1 of 12 candidates (11 below threshold")
}

func TestSearchCmd_MapsFlags(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search", "--topic", "labour", "--only-topic", "-b", "900", "-k", "3",
		"--min-score", "0.5", "--granularity", "document", "q")

	require.NoError(t, err)
	opts := ts.corpus.gotOpts
	assert.Equal(t, "labour", opts.Topic)
	assert.True(t, opts.RestrictTopic)
	assert.Equal(t, 900, opts.MaxContextChars)
	assert.Equal(t, 3, opts.TopK)
	assert.Equal(t, 0.5, opts.MinScore)
	assert.Equal(t, domain.GranularityDocument, opts.Granularity)
}

func TestSearchCmd_DisablesThresholdAndBoost(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search", "--no-min-score", "--no-topic-boost", "q")

	require.NoError(t, err)
	assert.True(t, ts.corpus.gotOpts.NoMinScore)
	assert.True(t, ts.corpus.gotOpts.NoTopicBoost)
}

func TestSearchCmd_OnlyTopicNeedsTopic(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search", "--only-topic", "q")

	require.NoError(t, err)
	assert.False(t, ts.corpus.gotOpts.RestrictTopic)
}

func TestSearchCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No passages found.")
}

func TestSearchCmd_DegradedNotes(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	b := sampleBundle()
	b.Degraded = true
	b.Stats.ModelMismatch = 2
	ts.corpus.bundle = b

	out, err := execute("search", "q")

	require.NoError(t, err)
	assert.Contains(t, out, "could not be embedded")
	assert.Contains(t, out, "2 stale and 0 unreadable vectors")
}

func TestSearchCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.corpus.bundle = sampleBundle()

	out, err := execute("search", "--json", "q")

	require.NoError(t, err)
	var decoded domain.ContextBundle
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, "d1", decoded.Items[0].DocumentID)
	assert.Equal(t, 11, decoded.Stats.BelowThreshold)
}

func TestSearchCmd_Context(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.corpus.bundle = sampleBundle()

	out, err := execute("search", "--context", "q")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] Art. 5 Notice (document d1, score 0.87)")
	assert.NotContains(t, out, "Context:")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.corpus.err = errors.New("database is locked")

	_, err := execute("search", "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed: database is locked")
}

func TestSearchCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := execute("search", "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"short", "a  b\nc", 10, "a b c"},
		{"cut", "abcdefghij", 6, "abc..."},
		{"runes", "ñandú ñandú", 8, "ñandú..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snippet(tt.text, tt.n))
		})
	}
}
