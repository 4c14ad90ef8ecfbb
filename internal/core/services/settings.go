package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Environment variables consulted when no API key is configured.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	envEmbeddingAPIKey = "LEXIS_EMBEDDING_API_KEY"
	envLLMAPIKey       = "LEXIS_LLM_API_KEY"
	envOpenAIAPIKey    = "OPENAI_API_KEY"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

// setting binds a dotted config key to a field of domain.AppSettings.
type setting struct {
	key    string
	kind   valueKind
	check  func(any) error
	assign func(*domain.AppSettings, any)
}

var settingsTable = []setting{
	{"embedding.provider", kindString, checkProvider, func(s *domain.AppSettings, v any) {
		s.Embedding.Provider = domain.AIProvider(v.(string))
	}},
	{"embedding.model", kindString, nil, func(s *domain.AppSettings, v any) { s.Embedding.Model = v.(string) }},
	{"embedding.base_url", kindString, nil, func(s *domain.AppSettings, v any) { s.Embedding.BaseURL = v.(string) }},
	{"embedding.api_key", kindString, nil, func(s *domain.AppSettings, v any) { s.Embedding.APIKey = v.(string) }},
	{"embedding.timeout_seconds", kindInt, nil, func(s *domain.AppSettings, v any) {
		s.Embedding.Timeout = time.Duration(v.(int)) * time.Second
	}},
	{"embedding.max_input_chars", kindInt, nil, func(s *domain.AppSettings, v any) {
		s.Embedding.MaxInputChars = v.(int)
	}},
	{"embedding.window_overlap", kindInt, nil, func(s *domain.AppSettings, v any) {
		s.Embedding.WindowOverlap = v.(int)
	}},
	{"embedding.max_windows", kindInt, checkPositive, func(s *domain.AppSettings, v any) {
		s.Embedding.MaxWindows = v.(int)
	}},
	{"embedding.cache_size", kindInt, checkNonNegative, func(s *domain.AppSettings, v any) {
		s.Embedding.CacheSize = v.(int)
	}},
	{"embedding.requests_per_second", kindFloat, checkNonNegative, func(s *domain.AppSettings, v any) {
		s.Embedding.RequestsPerSecond = v.(float64)
	}},
	{"embedding.embed_sections", kindBool, nil, func(s *domain.AppSettings, v any) {
		s.Embedding.EmbedSections = v.(bool)
	}},
	{"retrieval.max_candidate_chars", kindInt, checkPositive, func(s *domain.AppSettings, v any) {
		s.Retrieval.MaxCandidateChars = v.(int)
	}},
	{"retrieval.max_context_chars", kindInt, nil, func(s *domain.AppSettings, v any) {
		s.Retrieval.MaxContextChars = v.(int)
	}},
	{"retrieval.min_score", kindFloat, nil, func(s *domain.AppSettings, v any) {
		s.Retrieval.MinScore = v.(float64)
	}},
	{"retrieval.top_k", kindInt, nil, func(s *domain.AppSettings, v any) { s.Retrieval.TopK = v.(int) }},
	{"retrieval.topic_boost", kindFloat, checkNonNegative, func(s *domain.AppSettings, v any) {
		s.Retrieval.TopicBoost = v.(float64)
	}},
	{"retrieval.granularity", kindString, nil, func(s *domain.AppSettings, v any) {
		s.Retrieval.Granularity = domain.Granularity(v.(string))
	}},
	{"chunker.min_section_chars", kindInt, checkNonNegative, func(s *domain.AppSettings, v any) {
		s.Chunker.MinSectionChars = v.(int)
	}},
	{"chunker.min_paragraph_chars", kindInt, checkNonNegative, func(s *domain.AppSettings, v any) {
		s.Chunker.MinParagraphChars = v.(int)
	}},
	{"llm.provider", kindString, checkProvider, func(s *domain.AppSettings, v any) {
		s.LLM.Provider = domain.AIProvider(v.(string))
	}},
	{"llm.model", kindString, nil, func(s *domain.AppSettings, v any) { s.LLM.Model = v.(string) }},
	{"llm.base_url", kindString, nil, func(s *domain.AppSettings, v any) { s.LLM.BaseURL = v.(string) }},
	{"llm.api_key", kindString, nil, func(s *domain.AppSettings, v any) { s.LLM.APIKey = v.(string) }},
}

// SettingsService resolves application settings from defaults, the config
// store and the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// Stored values override defaults; API keys fall back to the environment and
// models fall back to the provider default.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	for _, st := range settingsTable {
		v, ok := s.stored(st)
		if !ok {
			continue
		}
		if st.check != nil && st.check(v) != nil {
			continue
		}
		st.assign(&settings, v)
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.firstEnv(envEmbeddingAPIKey, envOpenAIAPIKey)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.firstEnv(envLLMAPIKey, envOpenAIAPIKey)
	}
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", s.configStore.Path(), err)
	}
	return &settings, nil
}

// Set parses value for key, validates the resulting settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	st, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	v, err := parseValue(st.kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if st.check != nil {
		if err := st.check(v); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	st.assign(settings, v)
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(st.key, v); err != nil {
		return fmt.Errorf("save %s: %w", st.key, err)
	}
	return nil
}

// Keys lists every supported key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingsTable))
	for _, st := range settingsTable {
		keys = append(keys, st.key)
	}
	slices.Sort(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config values.

func (s *SettingsService) stored(st setting) (any, bool) {
	if _, exists := s.configStore.Get(st.key); !exists {
		return nil, false
	}
	switch st.kind {
	case kindInt:
		return s.configStore.GetInt(st.key), true
	case kindFloat:
		return s.configStore.GetFloat(st.key), true
	case kindBool:
		return s.configStore.GetBool(st.key), true
	default:
		v := s.configStore.GetString(st.key)
		return v, v != ""
	}
}

func (s *SettingsService) firstEnv(names ...string) string {
	for _, name := range names {
		if v := s.getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func lookupSetting(key string) (setting, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, st := range settingsTable {
		if st.key == key {
			return st, true
		}
	}
	return setting{}, false
}

func parseValue(kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}

func checkProvider(v any) error {
	p := domain.AIProvider(v.(string))
	if p != domain.AIProviderNone && !p.IsValid() {
		return fmt.Errorf("unknown provider %q", p)
	}
	return nil
}

func checkPositive(v any) error {
	if v.(int) <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func checkNonNegative(v any) error {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return fmt.Errorf("must not be negative")
		}
	case float64:
		if n < 0 {
			return fmt.Errorf("must not be negative")
		}
	}
	return nil
}
