package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid document URI", "lexis://documents/doc-456", "doc-456"},
		{"invalid prefix", "file://documents/doc-456", ""},
		{"sections URI", "lexis://documents/doc-456/sections", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

func TestExtractSectionsDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid sections URI", "lexis://documents/doc-1/sections", "doc-1"},
		{"missing suffix", "lexis://documents/doc-1", ""},
		{"missing id", "lexis://documents//sections", ""},
		{"invalid prefix", "file://documents/doc-1/sections", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSectionsDocumentID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func newResourceServer(t *testing.T, docs *mockDocumentService) *Server {
	t.Helper()
	ports := &Ports{Corpus: &mockCorpusService{}}
	if docs != nil {
		ports.Document = docs
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns empty list", func(t *testing.T) {
		server := newResourceServer(t, nil)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("lexis://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists active documents", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.Document{
			{ID: "doc-1", Title: "Labour Code", Topic: "labour"},
			{ID: "doc-2", Title: "Notes"},
		}}
		server := newResourceServer(t, docs)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("lexis://documents"))

		require.NoError(t, err)
		assert.True(t, docs.gotFilter.ActiveOnly)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var infos []map[string]string
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
		require.Len(t, infos, 2)
		assert.Equal(t, "doc-1", infos[0]["id"])
		assert.Equal(t, "labour", infos[0]["topic"])
		assert.Equal(t, "lexis://documents/doc-2", infos[1]["uri"])
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{err: errors.New("db locked")})

		_, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("lexis://documents"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns content", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{
			document: &domain.Document{ID: "doc-1", Content: "Art. 1 Scope."},
		})

		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("lexis://documents/doc-1"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "Art. 1 Scope.", result.Contents[0].Text)
	})

	t.Run("missing document", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{err: domain.ErrNotFound})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("lexis://documents/nope"))

		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("bad uri", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("lexis://other"))

		require.Error(t, err)
	})

	t.Run("nil document service", func(t *testing.T) {
		server := newResourceServer(t, nil)

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("lexis://documents/doc-1"))

		require.Error(t, err)
	})
}

func TestServer_handleSectionsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns sections", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{sections: []domain.Section{
			{ID: "s0", Title: "Art. 1", Position: 0, Content: "Scope."},
			{ID: "s1", Title: "Art. 2", Position: 1, Content: "Definitions."},
		}})

		result, err := server.handleSectionsResource(ctx, makeReadResourceRequest("lexis://documents/doc-1/sections"))

		require.NoError(t, err)
		var infos []struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Position int    `json:"position"`
		}
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
		require.Len(t, infos, 2)
		assert.Equal(t, "Art. 2", infos[1].Title)
		assert.Equal(t, 1, infos[1].Position)
	})

	t.Run("missing document", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{err: domain.ErrNotFound})

		_, err := server.handleSectionsResource(ctx, makeReadResourceRequest("lexis://documents/x/sections"))

		require.Error(t, err)
	})
}
