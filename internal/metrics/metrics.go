// Package metrics holds the Prometheus instruments of the retrieval core.
//
// Metrics are registered on an injected registerer so tests and embedders
// can use their own registry. A nil *Metrics is valid and records nothing.
//
// Metrics:
//   - lexis_embedding_requests_total{outcome} - ok, unavailable, timeout
//   - lexis_embedding_duration_seconds - provider call latency
//   - lexis_embedding_cache_total{result} - hit, miss
//   - lexis_embedding_rate_limited_total - provider rate-limit responses
//   - lexis_candidates_scored_total{method} - vector, lexical
//   - lexis_candidates_discarded_total{reason} - threshold, budget, top_k
//   - lexis_vector_faults_total{kind} - malformed, model_mismatch
//   - lexis_bundle_chars - characters per returned bundle
//   - lexis_searches_total{mode} - full, degraded, empty
//   - lexis_ingestions_total{outcome} - ok, empty, failed
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

const namespace = "lexis"

// Metrics holds the instruments.
type Metrics struct {
	EmbeddingRequests *prometheus.CounterVec
	EmbeddingDuration prometheus.Histogram
	EmbeddingCache    *prometheus.CounterVec
	RateLimited       prometheus.Counter
	CandidatesScored  *prometheus.CounterVec
	CandidatesDropped *prometheus.CounterVec
	VectorFaults      *prometheus.CounterVec
	BundleChars       prometheus.Histogram
	Searches          *prometheus.CounterVec
	Ingestions        *prometheus.CounterVec
}

// New creates the instruments and registers them on reg.
// Registering twice on the same registry panics, as with promauto.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EmbeddingRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Embedding provider calls by outcome.",
		}, []string{"outcome"}),
		EmbeddingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_duration_seconds",
			Help:      "Latency of embedding provider calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}),
		EmbeddingCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Query embedding cache lookups.",
		}, []string{"result"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_rate_limited_total",
			Help:      "Embedding calls rejected by the provider's rate limit.",
		}),
		CandidatesScored: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_scored_total",
			Help:      "Candidates scored by method.",
		}, []string{"method"}),
		CandidatesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_discarded_total",
			Help:      "Candidates left out of a bundle by reason.",
		}, []string{"reason"}),
		VectorFaults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_faults_total",
			Help:      "Stored vectors that could not be used.",
		}, []string{"kind"}),
		BundleChars: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bundle_chars",
			Help:      "Characters per returned context bundle.",
			Buckets:   prometheus.ExponentialBuckets(250, 2, 8), // 250 to 32000
		}),
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches by mode.",
		}, []string{"mode"}),
		Ingestions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Document ingestions by outcome.",
		}, []string{"outcome"}),
	}
}

// RecordEmbedding records one provider call.
func (m *Metrics) RecordEmbedding(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.EmbeddingRequests.WithLabelValues(outcome).Inc()
	m.EmbeddingDuration.Observe(d.Seconds())
}

// RecordCache records a query cache lookup.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.EmbeddingCache.WithLabelValues("hit").Inc()
		return
	}
	m.EmbeddingCache.WithLabelValues("miss").Inc()
}

// RecordRateLimited records a rate-limited provider response.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// RecordSearch records the outcome of one search.
func (m *Metrics) RecordSearch(mode string, stats domain.BundleStats, bundleChars int) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(mode).Inc()
	m.CandidatesScored.WithLabelValues("vector").Add(float64(stats.VectorScored))
	m.CandidatesScored.WithLabelValues("lexical").Add(float64(stats.LexicalScored))
	m.VectorFaults.WithLabelValues("malformed").Add(float64(stats.MalformedVector))
	m.VectorFaults.WithLabelValues("model_mismatch").Add(float64(stats.ModelMismatch))
	m.CandidatesDropped.WithLabelValues("threshold").Add(float64(stats.BelowThreshold))
	m.CandidatesDropped.WithLabelValues("budget").Add(float64(stats.OverBudget))
	m.CandidatesDropped.WithLabelValues("top_k").Add(float64(stats.OverTopK))
	m.BundleChars.Observe(float64(bundleChars))
}

// RecordIngestion records the outcome of one document ingestion.
func (m *Metrics) RecordIngestion(outcome string) {
	if m == nil {
		return
	}
	m.Ingestions.WithLabelValues(outcome).Inc()
}
