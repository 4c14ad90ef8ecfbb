package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider(Config{})

	assert.Equal(t, DefaultModel, p.ModelName())
	assert.Equal(t, DefaultDimensions, p.Dimensions())
	assert.Equal(t, DefaultBaseURL, p.baseURL)
}

func TestProvider_Embed(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL, Model: "bge-m3", APIKey: "secret", Dimensions: 3})
	vec, err := p.Embed(context.Background(), "pensión de viudedad")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "bge-m3", got.Model)
	assert.Equal(t, "pensión de viudedad", got.Input)
}

func TestProvider_Embed_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "model not loaded", "status 500: model not loaded"},
		{"error field", http.StatusOK, `{"error":"bad input"}`, "ollama: bad input"},
		{"empty embeddings", http.StatusOK, `{"embeddings":[]}`, "empty embedding"},
		{"invalid json", http.StatusOK, `{`, "decode response"},
		{"rate limited", http.StatusTooManyRequests, "slow down", "rate limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewProvider(Config{BaseURL: srv.URL})
			_, err := p.Embed(context.Background(), "text")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProvider_Embed_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1]]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider(Config{BaseURL: srv.URL}).Embed(ctx, "text")
	require.ErrorIs(t, err, context.Canceled)
}

func TestProvider_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL})
	require.NoError(t, p.Ping(context.Background()))
	require.NoError(t, p.Close())
}

func TestProvider_Ping_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewProvider(Config{BaseURL: url}).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping failed")
}
