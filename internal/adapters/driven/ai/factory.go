// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/lexis/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/lexis/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/lexis/internal/adapters/driven/embedding/ratelimit"
	ollamallm "github.com/custodia-labs/lexis/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/lexis/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/metrics"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	Embedding driven.EmbeddingProvider
	Generator driven.AnswerGenerator
	Warnings  []string // Non-fatal issues that caused fallback.
	FellBack  bool     // True if retrieval fell back to lexical-only scoring.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedding != nil {
		_ = r.Embedding.Close()
	}
	if r.Generator != nil {
		_ = r.Generator.Close()
	}
}

// Init builds the configured providers and pings them. An unreachable
// provider is dropped with a warning instead of failing startup: retrieval
// then scores lexically and ask reports the generator as unavailable.
// m may be nil.
func Init(ctx context.Context, settings *domain.AppSettings, m *metrics.Metrics) *InitResult {
	result := &InitResult{}

	embedding, err := CreateAndValidateEmbeddingProvider(ctx, &settings.Embedding, m)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
	}
	result.Embedding = embedding

	generator, err := CreateAndValidateAnswerGenerator(ctx, &settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.Generator = generator

	return result
}

// CreateAndValidateEmbeddingProvider creates an embedding provider and validates connectivity.
// Returns nil without error when no provider is configured.
func CreateAndValidateEmbeddingProvider(
	ctx context.Context, settings *domain.EmbeddingSettings, m *metrics.Metrics,
) (driven.EmbeddingProvider, error) {
	provider, err := CreateEmbeddingProvider(settings, m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'lexis settings set embedding.provider' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}
	if provider == nil {
		return nil, nil
	}

	if err := ping(ctx, provider.Ping); err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return provider, nil
}

// CreateAndValidateAnswerGenerator creates an answer generator and validates connectivity.
// Returns nil without error when no provider is configured.
func CreateAndValidateAnswerGenerator(
	ctx context.Context, settings *domain.LLMSettings,
) (driven.AnswerGenerator, error) {
	generator, err := CreateAnswerGenerator(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'lexis settings set llm.provider' to fix",
			domain.ErrLLMUnavailable, err)
	}
	if generator == nil {
		return nil, nil
	}

	if err := ping(ctx, generator.Ping); err != nil {
		_ = generator.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return generator, nil
}

// CreateEmbeddingProvider creates the embedding provider named by settings,
// throttled to settings.RequestsPerSecond.
// Returns nil if the provider is not configured.
func CreateEmbeddingProvider(settings *domain.EmbeddingSettings, m *metrics.Metrics) (driven.EmbeddingProvider, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var provider driven.EmbeddingProvider
	switch settings.Provider {
	case domain.AIProviderOllama:
		provider = createOllamaEmbedding(settings)

	case domain.AIProviderOpenAI:
		p, err := createOpenAIEmbedding(settings)
		if err != nil {
			return nil, err
		}
		provider = p

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}

	return ratelimit.Wrap(provider, ratelimit.Config{
		RequestsPerSecond: settings.RequestsPerSecond,
		Metrics:           m,
	}), nil
}

// CreateAnswerGenerator creates the answer generator named by settings.
// Returns nil if the provider is not configured.
func CreateAnswerGenerator(settings *domain.LLMSettings) (driven.AnswerGenerator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewGenerator(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			APIKey:  settings.APIKey,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewGenerator(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) *ollamaembed.Provider {
	return ollamaembed.NewProvider(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		APIKey:     settings.APIKey,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (*openaiembed.Provider, error) {
	return openaiembed.NewProvider(openaiembed.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}
