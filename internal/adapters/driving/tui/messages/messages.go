// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

// RetrievalCompleted carries a context bundle back to the model.
type RetrievalCompleted struct {
	Query  string
	Bundle *domain.ContextBundle
	Err    error
}

// AnswerCompleted carries a generated answer back to the model.
type AnswerCompleted struct {
	Answer *driving.Answer
	Err    error
}

// Focus identifies which pane receives key input.
type Focus int

const (
	// FocusInput routes keys to the query box.
	FocusInput Focus = iota
	// FocusResults routes keys to the passage list.
	FocusResults
	// FocusAnswer shows a generated answer in the viewport.
	FocusAnswer
)

// String returns the string representation of the focus.
func (f Focus) String() string {
	switch f {
	case FocusInput:
		return "input"
	case FocusResults:
		return "results"
	case FocusAnswer:
		return "answer"
	default:
		return "unknown"
	}
}
