package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
)

// --- Mock implementations ---

var errProviderDown = errors.New("provider down")

// mockProvider implements driven.EmbeddingProvider for testing.
// Texts listed in vectors get that vector; any other text gets a vector
// derived from its length so identical input yields identical output.
type mockProvider struct {
	mu      sync.Mutex
	model   string
	vectors map[string][]float32
	err     error
	failOn  string
	block   bool
	inputs  []string
}

func newMockProvider() *mockProvider {
	return &mockProvider{model: "mock-embed", vectors: make(map[string][]float32)}
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, text)
	err, block, failOn := m.err, m.block, m.failOn
	vec, ok := m.vectors[text]
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if failOn != "" && strings.Contains(text, failOn) {
		return nil, errProviderDown
	}
	if ok {
		return vec, nil
	}
	n := float32(len([]rune(text)))
	return []float32{1, n, n * n}, nil
}

func (m *mockProvider) Dimensions() int   { return 3 }
func (m *mockProvider) ModelName() string { return m.model }
func (m *mockProvider) Ping(_ context.Context) error {
	return m.err
}
func (m *mockProvider) Close() error { return nil }

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

func (m *mockProvider) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// mockGenerator implements driven.AnswerGenerator for testing.
type mockGenerator struct {
	reply    string
	err      error
	messages []driven.ChatMessage
}

func (m *mockGenerator) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.messages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockGenerator) ModelName() string            { return "mock-llm" }
func (m *mockGenerator) Ping(_ context.Context) error { return nil }
func (m *mockGenerator) Close() error                 { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockSectioner implements driven.Sectioner returning fixed sections.
type mockSectioner struct {
	sections []domain.Section
	err      error
}

func (m *mockSectioner) Name() string { return "mock" }

func (m *mockSectioner) Process(_ context.Context, _ *domain.Document) ([]domain.Section, error) {
	return m.sections, m.err
}

// mockValidator implements driven.AIConfigValidator for testing.
type mockValidator struct {
	embeddingErr error
	llmErr       error
}

func (m *mockValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error { return m.embeddingErr }
func (m *mockValidator) ValidateLLM(_ *domain.LLMSettings) error             { return m.llmErr }
