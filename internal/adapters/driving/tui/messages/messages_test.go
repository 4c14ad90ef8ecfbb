package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFocus_String(t *testing.T) {
	tests := []struct {
		focus Focus
		want  string
	}{
		{FocusInput, "input"},
		{FocusResults, "results"},
		{FocusAnswer, "answer"},
		{Focus(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.focus.String())
		})
	}
}
