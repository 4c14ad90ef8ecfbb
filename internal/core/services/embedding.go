package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/lexis/internal/chunker"
	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/logger"
	"github.com/custodia-labs/lexis/internal/metrics"
)

// EmbeddingConfig bounds provider usage.
type EmbeddingConfig struct {
	// Timeout bounds every provider call.
	Timeout time.Duration

	// MaxInputChars truncates text before submission.
	MaxInputChars int

	// WindowOverlap is the overlap between windows of long documents.
	WindowOverlap int

	// MaxWindows caps how many windows of a long document are embedded.
	MaxWindows int

	// CacheSize is the number of query vectors kept. Zero disables the cache.
	CacheSize int
}

// EmbeddingConfigFromSettings maps settings onto the service configuration.
func EmbeddingConfigFromSettings(s domain.EmbeddingSettings) EmbeddingConfig {
	return EmbeddingConfig{
		Timeout:       s.Timeout,
		MaxInputChars: s.MaxInputChars,
		WindowOverlap: s.WindowOverlap,
		MaxWindows:    s.MaxWindows,
		CacheSize:     s.CacheSize,
	}
}

func (c EmbeddingConfig) withDefaults() EmbeddingConfig {
	d := domain.DefaultAppSettings().Embedding
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = d.MaxInputChars
	}
	if c.WindowOverlap < 0 || c.WindowOverlap >= c.MaxInputChars {
		c.WindowOverlap = 0
	}
	if c.MaxWindows <= 0 {
		c.MaxWindows = 1
	}
	return c
}

// EmbeddingService wraps an embedding provider and absorbs its failures.
// Every failure resolves to domain.ErrEmbeddingUnavailable so callers can
// degrade instead of aborting. A service with a nil provider is valid and
// always unavailable.
type EmbeddingService struct {
	provider driven.EmbeddingProvider
	cfg      EmbeddingConfig
	cache    *lru.Cache[string, []float32]
	metrics  *metrics.Metrics
}

// NewEmbeddingService creates an embedding service.
// The provider and metrics parameters are optional (can be nil).
func NewEmbeddingService(
	provider driven.EmbeddingProvider, cfg EmbeddingConfig, m *metrics.Metrics,
) *EmbeddingService {
	cfg = cfg.withDefaults()
	s := &EmbeddingService{
		provider: provider,
		cfg:      cfg,
		metrics:  m,
	}
	if cfg.CacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		s.cache, _ = lru.New[string, []float32](cfg.CacheSize)
	}
	return s
}

// Available returns true if a provider is configured.
func (s *EmbeddingService) Available() bool {
	return s != nil && s.provider != nil
}

// ModelName returns the model tag recorded next to stored vectors.
// It is empty when no provider is configured.
func (s *EmbeddingService) ModelName() string {
	if !s.Available() {
		return ""
	}
	return s.provider.ModelName()
}

// Embed returns the vector of text truncated to the input budget.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if !s.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrEmbeddingUnavailable)
	}
	return s.call(ctx, chunker.Truncate(text, s.cfg.MaxInputChars))
}

// EmbedQuery is Embed with a cache of recent queries.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if !s.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	key := s.provider.ModelName() + "\x00" + strings.TrimSpace(query)
	if s.cache != nil {
		if vec, ok := s.cache.Get(key); ok {
			s.metrics.RecordCache(true)
			return vec, nil
		}
		s.metrics.RecordCache(false)
	}

	vec, err := s.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(key, vec)
	}
	return vec, nil
}

// EmbedDocument returns one vector for text of any length.
// Text within the input budget is embedded directly. Longer text is embedded
// over up to MaxWindows overlapping windows whose vectors are averaged.
// A failure on any window makes the whole document unavailable.
func (s *EmbeddingService) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if !s.Available() {
		return nil, domain.ErrEmbeddingUnavailable
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= s.cfg.MaxInputChars {
		return s.Embed(ctx, text)
	}

	var sum []float64
	n := 0
	for window := range chunker.Windows(text, s.cfg.MaxInputChars, s.cfg.WindowOverlap) {
		if n == s.cfg.MaxWindows {
			break
		}
		vec, err := s.call(ctx, window)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", n, err)
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		} else if len(vec) != len(sum) {
			return nil, fmt.Errorf("%w: window %d has %d dimensions, expected %d",
				domain.ErrEmbeddingUnavailable, n, len(vec), len(sum))
		}
		for i, v := range vec {
			sum[i] += float64(v)
		}
		n++
	}
	logger.Debug("Embedded long document over %d windows", n)

	mean := make([]float32, len(sum))
	for i, v := range sum {
		mean[i] = float32(v / float64(n))
	}
	return mean, nil
}

// call invokes the provider under the configured timeout.
func (s *EmbeddingService) call(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	vec, err := s.provider.Embed(callCtx, text)
	elapsed := time.Since(start)

	switch {
	case err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		s.metrics.RecordEmbedding("timeout", elapsed)
		logger.Warn("Embedding timed out after %s", s.cfg.Timeout)
		return nil, fmt.Errorf("%w: timeout after %s", domain.ErrEmbeddingUnavailable, s.cfg.Timeout)
	case err != nil:
		s.metrics.RecordEmbedding("unavailable", elapsed)
		logger.Warn("Embedding failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if err := validateVector(vec); err != nil {
		s.metrics.RecordEmbedding("unavailable", elapsed)
		logger.Warn("Embedding provider returned an unusable vector: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	s.metrics.RecordEmbedding("ok", elapsed)
	return vec, nil
}

// EncodeVector serializes a vector for storage as a JSON array of floats.
func EncodeVector(vec []float32) (string, error) {
	if err := validateVector(vec); err != nil {
		return "", err
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("encode vector: %w", err)
	}
	return string(data), nil
}

// DecodeVector parses a stored vector.
// Anything but a non-empty JSON array of finite numbers is malformed.
func DecodeVector(s string) ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal([]byte(s), &vec); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedVector, err)
	}
	if err := validateVector(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func validateVector(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrMalformedVector)
	}
	for i, v := range vec {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: non-finite component at %d", domain.ErrMalformedVector, i)
		}
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length or zero magnitude score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
