package driven

import "github.com/custodia-labs/lexis/internal/core/domain"

// AIConfigValidator checks provider settings against the live service
// before they are saved. Settings that name no provider are valid.
type AIConfigValidator interface {
	// ValidateEmbedding fails unless the provider answers and produces a
	// vector of the length expected for its model.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error

	// ValidateLLM fails unless the provider answers a ping.
	ValidateLLM(settings *domain.LLMSettings) error
}
