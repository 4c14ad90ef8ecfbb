package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

func TestSettingsShowCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.Embedding.Provider = domain.AIProviderOpenAI
	ts.settings.settings.Embedding.Model = "text-embedding-3-small"
	ts.settings.settings.Embedding.APIKey = "sk-1234567890abcdef"

	out, err := execute("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Provider: OpenAI (cloud)")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Context budget: 12000 chars")
	assert.Contains(t, out, "[LLM]")
	assert.Contains(t, out, "Provider: Disabled")
}

func TestSettingsCmd_DefaultsToShow(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Current Settings")
}

func TestSettingsSetCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "retrieval.top_k", "12")

	require.NoError(t, err)
	assert.Equal(t, "12", ts.settings.set["retrieval.top_k"])
	assert.Contains(t, out, "Set retrieval.top_k = 12")
}

func TestSettingsSetCmd_MasksAPIKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "llm.api_key", "sk-1234567890abcdef")

	require.NoError(t, err)
	assert.Equal(t, "sk-1234567890abcdef", ts.settings.set["llm.api_key"])
	assert.Contains(t, out, "Set llm.api_key = sk-1...cdef")
}

func TestSettingsSetCmd_PromptsForAPIKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("sk-from-stdin-0000\n"))

	out, err := execute("settings", "set", "embedding.api_key")

	require.NoError(t, err)
	assert.Equal(t, "sk-from-stdin-0000", ts.settings.set["embedding.api_key"])
	assert.Contains(t, out, "Enter value for embedding.api_key")
}

func TestSettingsSetCmd_MissingValue(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("settings", "set", "retrieval.top_k")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing value for retrieval.top_k")
}

func TestSettingsSetCmd_Rejected(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.setErr = domain.ErrInvalidInput

	_, err := execute("settings", "set", "retrieval.top_k", "-1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsSetCmd_NegativeValue(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "retrieval.top_k", "-1")

	require.NoError(t, err)
	assert.Equal(t, "-1", ts.settings.set["retrieval.top_k"])
	assert.Contains(t, out, "Set retrieval.top_k = -1")
}

func TestSettingsSetCmd_Help(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "--help")

	require.NoError(t, err)
	assert.Empty(t, ts.settings.set)
	assert.Contains(t, out, "Validates and stores one setting")
}

func TestSettingsKeysCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, "embedding.provider\nretrieval.top_k\n", out)
}

func TestSettingsWizardCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	// ollama with the default model, then openai with an explicit model and key
	rootCmd.SetIn(strings.NewReader("2\n\n3\ngpt-4.1-mini\nsk-abcdefghijkl\n"))

	out, err := execute("settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"embedding.provider": string(domain.AIProviderOllama),
		"embedding.model":    "nomic-embed-text",
		"llm.provider":       string(domain.AIProviderOpenAI),
		"llm.model":          "gpt-4.1-mini",
		"llm.api_key":        "sk-abcdefghijkl",
	}, ts.settings.set)
	assert.Contains(t, out, "embedding provider configured: Ollama (local) (nomic-embed-text)")
	assert.Contains(t, out, "Setup complete.")
}

func TestSettingsWizardCmd_Disabled(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	rootCmd.SetIn(strings.NewReader("\n1\n"))

	_, err := execute("settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, string(domain.AIProviderNone), ts.settings.set["embedding.provider"])
	assert.Equal(t, string(domain.AIProviderNone), ts.settings.set["llm.provider"])
	assert.NotContains(t, ts.settings.set, "llm.model")
}

func TestSettingsWizardCmd_ValidationFails(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New("connection refused")
	rootCmd.SetIn(strings.NewReader("2\n\n"))

	out, err := execute("settings", "wizard")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding configuration validation failed")
	assert.Contains(t, out, "FAILED: connection refused")
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"sk-1234567890abcdef", "sk-1...cdef"},
		{"short", "****"},
		{"12345678", "****"},
		{"123456789", "1234...6789"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, maskAPIKey(tt.key))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty uses default", "", 1},
		{"valid", "3", 3},
		{"out of range", "4", 1},
		{"zero", "0", 1},
		{"not a number", "ollama", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseChoice(tt.input, 3, 1))
		})
	}
}
