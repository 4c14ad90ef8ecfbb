package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

func TestVersionCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	original := version
	defer SetVersion(original)
	SetVersion("1.2.0")

	out, err := execute("version")

	require.NoError(t, err)
	assert.Equal(t, "lexis version 1.2.0\n", out)
}

func TestVersionCmd_Verbose(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.Embedding.Provider = domain.AIProviderOllama
	ts.settings.settings.Embedding.Model = "nomic-embed-text"

	out, err := execute("version", "--verbose")

	require.NoError(t, err)
	assert.Contains(t, out, "go:        go")
	assert.Contains(t, out, "embedding: ollama/nomic-embed-text")
}

func TestEmbeddingModelTag_Unconfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	assert.Equal(t, "none (lexical scoring only)", embeddingModelTag())
}

func TestEmbeddingModelTag_NoSettingsService(t *testing.T) {
	assert.Equal(t, "unknown", embeddingModelTag())
}
