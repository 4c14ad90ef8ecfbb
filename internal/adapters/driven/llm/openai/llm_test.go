package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGenerator(Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o"})
	require.NoError(t, err)
	return g
}

func TestNewGenerator(t *testing.T) {
	_, err := NewGenerator(Config{})
	require.Error(t, err)

	g, err := NewGenerator(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.ModelName())
}

func TestGenerator_Chat(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxCompletionTokens int     `json:"max_completion_tokens"`
		Temperature         float64 `json:"temperature"`
	}
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": " Artículo 205. "}}]
		}`))
	})

	reply, err := g.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "q"},
		{Role: "assistant", Content: "a"},
	}, driven.ChatOptions{MaxTokens: 256, Temperature: 0.3})

	require.NoError(t, err)
	assert.Equal(t, "Artículo 205.", reply)
	assert.Equal(t, "gpt-4o", body.Model)
	require.Len(t, body.Messages, 3)
	assert.Equal(t, []string{"system", "user", "assistant"},
		[]string{body.Messages[0].Role, body.Messages[1].Role, body.Messages[2].Role})
	assert.Equal(t, 256, body.MaxCompletionTokens)
	assert.InDelta(t, 0.3, body.Temperature, 1e-9)
}

func TestGenerator_Chat_EmptyChoices(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})

	_, err := g.Chat(context.Background(), nil, driven.ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty reply")
}

func TestGenerator_Chat_RateLimited(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After-Ms", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	})

	_, err := g.Chat(context.Background(), nil, driven.ChatOptions{})
	require.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestGenerator_Ping(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o","object":"model","created":0,"owned_by":"openai"}]}`))
	})

	require.NoError(t, g.Ping(context.Background()))
	require.NoError(t, g.Close())
}
