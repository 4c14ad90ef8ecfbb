package driving

import (
	"context"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

// AskService hands retrieved context to the answer generator.
type AskService interface {
	// Answer responds to a question using corpus context. When no context is
	// available the generator answers without it and the result says so.
	Answer(ctx context.Context, question string, opts domain.RetrievalOptions) (*Answer, error)

	// GenerateQuestions drafts multiple-choice exam questions about a topic.
	GenerateQuestions(ctx context.Context, subject string, count int, opts domain.RetrievalOptions) (*Answer, error)
}

// Answer is generated prose with the context it was grounded on.
type Answer struct {
	// Text is the generator's reply.
	Text string

	// Bundle is the context handed to the generator. Never nil.
	Bundle *domain.ContextBundle

	// Model names the generator model.
	Model string
}

// Grounded reports whether any corpus passage was used.
func (a *Answer) Grounded() bool {
	return a != nil && !a.Bundle.Empty()
}
