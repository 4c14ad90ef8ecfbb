package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or answer generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderNone disables the service.
	AIProviderNone AIProvider = "none"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderNone, "":
		return "Disabled"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name. It is recorded next to every stored vector.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Timeout bounds every provider call.
	Timeout time.Duration

	// MaxInputChars truncates text before submission.
	MaxInputChars int

	// WindowOverlap is the overlap between windows of long documents.
	WindowOverlap int

	// MaxWindows caps how many windows of a long document are embedded.
	MaxWindows int

	// CacheSize is the number of query embeddings kept in memory.
	CacheSize int

	// RequestsPerSecond throttles provider calls during batch work.
	RequestsPerSecond float64

	// EmbedSections stores a vector per section in addition to the document vector.
	EmbedSections bool
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds the configuration surface of the retrieval engine.
type RetrievalSettings struct {
	// MaxCandidateChars truncates each candidate before scoring.
	MaxCandidateChars int

	// MaxContextChars is the total character budget of a context bundle.
	MaxContextChars int

	// MinScore is the relevance threshold.
	MinScore float64

	// TopK caps the number of included candidates.
	TopK int

	// TopicBoost is added to lexical scores of candidates matching the topic filter.
	TopicBoost float64

	// Granularity selects section or document candidates.
	Granularity Granularity
}

// ChunkerSettings holds sectioning thresholds.
type ChunkerSettings struct {
	// MinSectionChars discards structural matches shorter than this.
	MinSectionChars int

	// MinParagraphChars discards fallback paragraphs shorter than this.
	MinParagraphChars int
}

// LLMSettings holds answer generator configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	Retrieval RetrievalSettings
	Chunker   ChunkerSettings
	LLM       LLMSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; retrieval then runs lexical-only.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:          AIProviderNone,
			Timeout:           10 * time.Second,
			MaxInputChars:     8000,
			WindowOverlap:     200,
			MaxWindows:        8,
			CacheSize:         256,
			RequestsPerSecond: 5,
			EmbedSections:     true,
		},
		Retrieval: RetrievalSettings{
			MaxCandidateChars: 4000,
			MaxContextChars:   12000,
			MinScore:          0.15,
			TopK:              8,
			TopicBoost:        0.1,
			Granularity:       GranularitySection,
		},
		Chunker: ChunkerSettings{
			MinSectionChars:   40,
			MinParagraphChars: 80,
		},
		LLM: LLMSettings{
			Provider: AIProviderNone,
		},
	}
}

// Validate checks the settings for values the engine cannot honour.
func (s AppSettings) Validate() error {
	e, r := s.Embedding, s.Retrieval
	switch {
	case e.MaxInputChars <= 0:
		return fmt.Errorf("%w: embedding.max_input_chars must be positive", ErrInvalidInput)
	case e.WindowOverlap < 0 || e.WindowOverlap >= e.MaxInputChars:
		return fmt.Errorf("%w: embedding.window_overlap must be in [0, max_input_chars)", ErrInvalidInput)
	case e.Timeout <= 0:
		return fmt.Errorf("%w: embedding.timeout_seconds must be positive", ErrInvalidInput)
	case r.MaxContextChars <= 0:
		return fmt.Errorf("%w: retrieval.max_context_chars must be positive", ErrInvalidInput)
	case r.MinScore < 0 || r.MinScore > 1:
		return fmt.Errorf("%w: retrieval.min_score must be in [0, 1]", ErrInvalidInput)
	case r.TopK <= 0:
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalidInput)
	case !r.Granularity.IsValid():
		return fmt.Errorf("%w: retrieval.granularity must be section or document", ErrInvalidInput)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
