package services

import (
	"context"
	"errors"
	"math"
	"runtime"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/lexis/internal/chunker"
	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
	"github.com/custodia-labs/lexis/internal/logger"
	"github.com/custodia-labs/lexis/internal/metrics"
	"github.com/custodia-labs/lexis/internal/textnorm"
)

// Ensure RetrievalEngine implements the interface.
var _ driving.RetrievalEngine = (*RetrievalEngine)(nil)

// minScoringBlock is the smallest number of candidates scored per goroutine.
const minScoringBlock = 128

// RetrievalEngine ranks candidates and packs a context bundle.
// It keeps no state between queries apart from the embedding cache.
type RetrievalEngine struct {
	embeddings *EmbeddingService
	settings   domain.RetrievalSettings
	metrics    *metrics.Metrics
	workers    int
}

// NewRetrievalEngine creates a retrieval engine.
// The embeddings and metrics parameters are optional (can be nil); without
// embeddings every candidate is scored lexically.
func NewRetrievalEngine(
	embeddings *EmbeddingService, settings domain.RetrievalSettings, m *metrics.Metrics,
) *RetrievalEngine {
	return &RetrievalEngine{
		embeddings: embeddings,
		settings:   settings,
		metrics:    m,
		workers:    runtime.GOMAXPROCS(0),
	}
}

// scoreOutcome is the per-candidate result of the scoring phase.
type scoreOutcome struct {
	item      domain.ScoredCandidate
	malformed bool
	mismatch  bool
}

// queryTerms holds everything derived from the query once per search.
type queryTerms struct {
	vector []float32
	model  string
	terms  map[string]struct{}
	topic  string
}

// Search scores every candidate, drops those under the threshold, ranks the
// rest and packs whole candidates into the character budget.
func (e *RetrievalEngine) Search(
	ctx context.Context, q string, candidates []domain.Candidate, opts domain.RetrievalOptions,
) (*domain.ContextBundle, error) {
	logger.Section("Retrieval")

	opts = opts.WithDefaults(e.settings)
	q = strings.TrimSpace(q)
	bundle := &domain.ContextBundle{
		Query:  q,
		Items:  []domain.ScoredCandidate{},
		Budget: opts.MaxContextChars,
	}
	if q == "" {
		logger.Debug("Empty query, returning empty bundle")
		e.metrics.RecordSearch("empty", bundle.Stats, 0)
		return bundle, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qry := queryTerms{
		terms: textnorm.TermSet(q),
		topic: textnorm.TopicKey(opts.Topic),
	}
	qry.vector, qry.model = e.queryVector(ctx, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bundle.Degraded = qry.vector == nil
	logger.Debug("Query %q: %d terms, vector=%t, %d candidates",
		q, len(qry.terms), !bundle.Degraded, len(candidates))

	outcomes, err := e.scoreAll(ctx, qry, candidates, opts)
	if err != nil {
		return nil, err
	}

	stats := &bundle.Stats
	stats.Considered = len(candidates)
	ranked := make([]domain.ScoredCandidate, 0, len(outcomes))
	for i := range outcomes {
		o := &outcomes[i]
		if o.malformed {
			stats.MalformedVector++
		}
		if o.mismatch {
			stats.ModelMismatch++
		}
		if o.item.Method == domain.ScoreVector {
			stats.VectorScored++
		} else {
			stats.LexicalScored++
		}
		if o.item.Score < opts.MinScore {
			stats.BelowThreshold++
			continue
		}
		ranked = append(ranked, o.item)
	}
	if stats.MalformedVector > 0 || stats.ModelMismatch > 0 {
		logger.Warn("Scored lexically: %d malformed vectors, %d from another model",
			stats.MalformedVector, stats.ModelMismatch)
	}

	slices.SortStableFunc(ranked, compareRanked)
	bundle.Items, bundle.TotalChars = pack(ranked, opts, stats)

	mode := "full"
	if bundle.Degraded {
		mode = "degraded"
	}
	e.metrics.RecordSearch(mode, *stats, bundle.TotalChars)
	logger.Info("Bundle: %d items, %d/%d chars (%d below threshold, %d over budget, %d over top-k)",
		len(bundle.Items), bundle.TotalChars, bundle.Budget,
		stats.BelowThreshold, stats.OverBudget, stats.OverTopK)

	return bundle, nil
}

// queryVector embeds the query, or returns nil when retrieval must degrade.
func (e *RetrievalEngine) queryVector(ctx context.Context, q string) ([]float32, string) {
	if !e.embeddings.Available() {
		logger.Debug("No embedding provider, lexical-only scoring")
		return nil, ""
	}
	vec, err := e.embeddings.EmbedQuery(ctx, q)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("Query embedding unavailable, scoring lexically: %v", err)
		}
		return nil, ""
	}
	return vec, e.embeddings.ModelName()
}

// scoreAll scores candidates in parallel blocks. Results keep input order.
func (e *RetrievalEngine) scoreAll(
	ctx context.Context, q queryTerms, candidates []domain.Candidate, opts domain.RetrievalOptions,
) ([]scoreOutcome, error) {
	outcomes := make([]scoreOutcome, len(candidates))
	block := max(minScoringBlock, (len(candidates)+e.workers-1)/max(e.workers, 1))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.workers, 1))
	for lo := 0; lo < len(candidates); lo += block {
		hi := min(lo+block, len(candidates))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcomes[i] = scoreCandidate(q, candidates[i], i, opts)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// scoreCandidate uses the stored vector when it is usable and falls back to
// term overlap otherwise.
func scoreCandidate(q queryTerms, c domain.Candidate, index int, opts domain.RetrievalOptions) scoreOutcome {
	text := chunker.Truncate(c.Text, opts.MaxCandidateChars)
	var out scoreOutcome

	if q.vector != nil && c.Vector != "" {
		if c.VectorModel != q.model {
			out.mismatch = true
		} else if vec, err := DecodeVector(c.Vector); err != nil || len(vec) != len(q.vector) {
			out.malformed = true
		} else {
			score := clamp01(CosineSimilarity(q.vector, vec))
			out.item = domain.NewScoredCandidate(c, index, text, score, domain.ScoreVector)
			return out
		}
	}

	score := textnorm.Overlap(q.terms, textnorm.TermSet(text))
	if score > 0 && q.topic != "" && textnorm.TopicKey(c.Topic) == q.topic {
		score += opts.TopicBoost
	}
	out.item = domain.NewScoredCandidate(c, index, text, clamp01(score), domain.ScoreLexical)
	return out
}

// compareRanked orders by score descending, then shorter text, then input order.
// Input indexes are unique, so the order is total.
func compareRanked(a, b domain.ScoredCandidate) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	}
	la, lb := utf8.RuneCountInString(a.Text), utf8.RuneCountInString(b.Text)
	if la != lb {
		return la - lb
	}
	return a.InputIndex() - b.InputIndex()
}

// pack includes whole candidates in ranked order while they fit the budget
// and the top-K cap. A candidate that does not fit is skipped and the scan
// continues with the next one.
func pack(ranked []domain.ScoredCandidate, opts domain.RetrievalOptions,
	stats *domain.BundleStats) ([]domain.ScoredCandidate, int) {
	items := []domain.ScoredCandidate{}
	used := 0
	for i, c := range ranked {
		if len(items) == opts.TopK {
			stats.OverTopK += len(ranked) - i
			break
		}
		n := utf8.RuneCountInString(c.Text)
		if used+n > opts.MaxContextChars {
			stats.OverBudget++
			continue
		}
		items = append(items, c)
		used += n
	}
	return items, used
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
