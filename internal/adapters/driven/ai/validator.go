package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// probeText is embedded when validating an embedding model.
const probeText = "Artículo 1. Objeto."

// ConfigValidator checks provider settings against the live service.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator that gives each provider
// pingTimeout to answer.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// ValidateEmbedding pings the provider and embeds a probe. The model must
// return a non-empty vector whose length matches its known dimensions, since
// vectors of different lengths can never be compared during retrieval.
// Unconfigured settings are valid.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	provider, err := CreateEmbeddingProvider(settings, nil)
	if err != nil || provider == nil {
		return err
	}
	defer provider.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := provider.Ping(ctx); err != nil {
		return err
	}
	vec, err := provider.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("probe embedding: %w", err)
	}

	model := provider.ModelName()
	if len(vec) == 0 {
		return fmt.Errorf("%w: %s returned an empty vector", domain.ErrEmbeddingUnavailable, model)
	}
	if want := domain.EmbeddingDimensions()[model]; want > 0 && len(vec) != want {
		return fmt.Errorf("%w: %s returned %d dimensions, expected %d",
			domain.ErrInvalidInput, model, len(vec), want)
	}
	return nil
}

// ValidateLLM pings the LLM provider. Unconfigured settings are valid.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	generator, err := CreateAnswerGenerator(settings)
	if err != nil || generator == nil {
		return err
	}
	defer generator.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return generator.Ping(ctx)
}
