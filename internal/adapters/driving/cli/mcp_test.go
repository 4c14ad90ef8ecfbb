package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPServeCmd_Flags(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")

	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMCPServeCmd_RequiresCorpus(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := execute("mcp", "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus")
}

func TestExploreCmd_RequiresCorpus(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := execute("explore")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus service not configured")
}

func TestExploreCmd_HasRetrievalFlags(t *testing.T) {
	for _, name := range []string{"topic", "only-topic", "granularity"} {
		assert.NotNil(t, exploreCmd.Flags().Lookup(name), name)
	}
}
