package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

func sampleBundle() *domain.ContextBundle {
	return &domain.ContextBundle{
		Query: "notice period",
		Items: []domain.ScoredCandidate{
			{
				UnitID:     "sec-1",
				DocumentID: "doc-1",
				Title:      "Art. 5",
				Text:       "The notice period is thirty days.",
				Score:      0.82,
				Method:     domain.ScoreVector,
			},
		},
		TotalChars: 33,
		Budget:     4000,
	}
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns passages", func(t *testing.T) {
		corpus := &mockCorpusService{bundle: sampleBundle()}
		server, err := NewServer(&Ports{Corpus: corpus})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "notice period", MaxChars: 4000})

		require.NoError(t, err)
		assert.Equal(t, "notice period", corpus.gotQuery)
		assert.Equal(t, 4000, corpus.gotOpts.MaxContextChars)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "doc-1", output.Passages[0].DocumentID)
		assert.Equal(t, "sec-1", output.Passages[0].UnitID)
		assert.Equal(t, "vector", output.Passages[0].Method)
		assert.Equal(t, 33, output.TotalChars)
		assert.Equal(t, 4000, output.Budget)
		assert.Contains(t, output.Context, "[1] Art. 5")
	})

	t.Run("maps options", func(t *testing.T) {
		corpus := &mockCorpusService{}
		server, err := NewServer(&Ports{Corpus: corpus})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{
			Query:         "q",
			Topic:         "labour",
			OnlyTopic:     true,
			TopK:          3,
			MinScore:      0.4,
			NoTopicBoost:  true,
			WholeDocument: true,
		})

		require.NoError(t, err)
		assert.Equal(t, "labour", corpus.gotOpts.Topic)
		assert.True(t, corpus.gotOpts.RestrictTopic)
		assert.Equal(t, 3, corpus.gotOpts.TopK)
		assert.Equal(t, 0.4, corpus.gotOpts.MinScore)
		assert.False(t, corpus.gotOpts.NoMinScore)
		assert.True(t, corpus.gotOpts.NoTopicBoost)
		assert.Equal(t, domain.GranularityDocument, corpus.gotOpts.Granularity)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Passages)
	})

	t.Run("only_topic without topic is ignored", func(t *testing.T) {
		corpus := &mockCorpusService{}
		server, err := NewServer(&Ports{Corpus: corpus})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "q", OnlyTopic: true})

		require.NoError(t, err)
		assert.False(t, corpus.gotOpts.RestrictTopic)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Corpus: &mockCorpusService{err: errors.New("store closed")}})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "store closed")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns grounded answer", func(t *testing.T) {
		ask := &mockAskService{answer: &driving.Answer{
			Text:   "Thirty days.",
			Model:  "llama3.2",
			Bundle: sampleBundle(),
		}}
		server, err := NewServer(&Ports{Corpus: &mockCorpusService{}, Ask: ask})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "notice?", Topic: "labour"})

		require.NoError(t, err)
		assert.Equal(t, "Thirty days.", output.Text)
		assert.Equal(t, "llama3.2", output.Model)
		assert.True(t, output.Grounded)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "labour", ask.gotOpts.Topic)
	})

	t.Run("ungrounded answer", func(t *testing.T) {
		ask := &mockAskService{answer: &driving.Answer{Text: "General answer.", Bundle: &domain.ContextBundle{}}}
		server, err := NewServer(&Ports{Corpus: &mockCorpusService{}, Ask: ask})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.NoError(t, err)
		assert.False(t, output.Grounded)
		assert.Empty(t, output.Sources)
	})

	t.Run("without ask service", func(t *testing.T) {
		server, err := NewServer(&Ports{Corpus: &mockCorpusService{}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})

		assert.ErrorIs(t, err, ErrAskUnavailable)
	})

	t.Run("propagates llm errors", func(t *testing.T) {
		ask := &mockAskService{err: domain.ErrLLMUnavailable}
		server, err := NewServer(&Ports{Corpus: &mockCorpusService{}, Ask: ask})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})

		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}

func TestServer_handleQuestions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		count     int
		wantCount int
	}{
		{"default count", 0, defaultQuestionCount},
		{"negative count", -2, defaultQuestionCount},
		{"explicit count", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ask := &mockAskService{answer: &driving.Answer{Text: "1. ...", Bundle: sampleBundle()}}
			server, err := NewServer(&Ports{Corpus: &mockCorpusService{}, Ask: ask})
			require.NoError(t, err)

			_, output, err := server.handleQuestions(ctx, nil, QuestionsInput{Subject: "notice", Count: tt.count})

			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, ask.gotCount)
			assert.Equal(t, "1. ...", output.Text)
		})
	}
}
