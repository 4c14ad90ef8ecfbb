// Package ratelimit throttles calls to an embedding provider.
//
// Batch work such as reconcile fans out across workers; the limiter keeps
// the combined request rate within the provider's quota.
package ratelimit

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/metrics"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// DefaultBackoff is how long requests pause after the provider reports
// a rate limit.
const DefaultBackoff = 30 * time.Second

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size (default: ceil of RequestsPerSecond).
	BurstSize int
	// Backoff is the pause after a rate-limited response (default: 30s).
	Backoff time.Duration
	// Metrics counts rate-limited responses. Nil records nothing.
	Metrics *metrics.Metrics
}

// Provider wraps an embedding provider with a token bucket.
type Provider struct {
	next    driven.EmbeddingProvider
	limiter *rate.Limiter
	backoff time.Duration
	metrics *metrics.Metrics

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

// Wrap returns next throttled to cfg. A non-positive rate disables
// throttling and next is returned unchanged.
func Wrap(next driven.EmbeddingProvider, cfg Config) driven.EmbeddingProvider {
	if next == nil || cfg.RequestsPerSecond <= 0 {
		return next
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = int(math.Ceil(cfg.RequestsPerSecond))
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &Provider{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		backoff: cfg.Backoff,
		metrics: cfg.Metrics,
		now:     time.Now,
	}
}

// Embed waits for a token, then delegates to the wrapped provider.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	vec, err := p.next.Embed(ctx, text)
	if errors.Is(err, domain.ErrRateLimited) {
		p.recordRateLimit()
	}
	return vec, err
}

// Dimensions returns the wrapped provider's vector size.
func (p *Provider) Dimensions() int { return p.next.Dimensions() }

// ModelName returns the wrapped provider's model.
func (p *Provider) ModelName() string { return p.next.ModelName() }

// Ping is not throttled.
func (p *Provider) Ping(ctx context.Context) error { return p.next.Ping(ctx) }

// Close closes the wrapped provider.
func (p *Provider) Close() error { return p.next.Close() }

func (p *Provider) wait(ctx context.Context) error {
	p.mu.Lock()
	retryAt := p.retryAt
	p.mu.Unlock()

	if d := retryAt.Sub(p.now()); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return p.limiter.Wait(ctx)
}

func (p *Provider) recordRateLimit() {
	p.metrics.RecordRateLimited()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retryAt = p.now().Add(p.backoff)
}
