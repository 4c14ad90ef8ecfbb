package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
	assert.Contains(t, km.Quit.Keys(), "q")
	assert.Contains(t, km.Quit.Keys(), "ctrl+c")
	assert.Contains(t, km.Search.Keys(), "enter")
	assert.Contains(t, km.Ask.Keys(), "a")
	assert.Contains(t, km.Granularity.Keys(), "g")
}

func TestKeyMap_HelpSets(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.InputHelp(), 2)
	results := km.ResultsHelp()
	require.NotEmpty(t, results)
	assert.Equal(t, km.Quit.Help(), results[len(results)-1].Help())
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		key     string
		binding key.Binding
		want    bool
	}{
		{"k moves up", "k", km.Up, true},
		{"slash starts search", "/", km.NewSearch, true},
		{"enter is not ask", "enter", km.Ask, false},
		{"space scrolls", " ", km.ScrollDown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.key, tt.binding))
		})
	}
}
