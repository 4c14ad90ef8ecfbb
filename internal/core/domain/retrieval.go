package domain

import (
	"fmt"
	"strings"
)

// Granularity selects which stored units become retrieval candidates.
type Granularity string

// Available candidate granularities.
const (
	// GranularitySection offers one candidate per section.
	GranularitySection Granularity = "section"

	// GranularityDocument offers one candidate per document.
	GranularityDocument Granularity = "document"
)

// IsValid returns true if the granularity is recognised.
func (g Granularity) IsValid() bool {
	return g == GranularitySection || g == GranularityDocument
}

// ScoreMethod records how a candidate's relevance was computed.
type ScoreMethod string

// Scoring methods.
const (
	// ScoreVector is cosine similarity against a stored vector.
	ScoreVector ScoreMethod = "vector"

	// ScoreLexical is normalised term overlap.
	ScoreLexical ScoreMethod = "lexical"
)

// Candidate is a unit offered to the retrieval engine for a single query.
// It may or may not carry a vector.
type Candidate struct {
	// UnitID identifies the section or document this candidate came from.
	UnitID string

	// DocumentID is the owning document, used for attribution.
	DocumentID string

	// Title is the attribution title.
	Title string

	// Text is the passage that would be handed to the generator.
	Text string

	// Topic is the owning document's topic tag.
	Topic string

	// Vector is the serialized stored vector, empty when none exists.
	Vector string

	// VectorModel names the model that produced Vector.
	VectorModel string
}

// ScoredCandidate is a candidate after scoring. It lives for one query.
type ScoredCandidate struct {
	UnitID     string      `json:"unit_id"`
	DocumentID string      `json:"document_id"`
	Title      string      `json:"title"`
	Text       string      `json:"text"`
	Score      float64     `json:"score"`
	Method     ScoreMethod `json:"method"`

	// index is the candidate's position in the input, the last tie-break.
	index int
}

// NewScoredCandidate builds a scored candidate remembering its input position.
func NewScoredCandidate(c Candidate, index int, text string, score float64, method ScoreMethod) ScoredCandidate {
	return ScoredCandidate{
		UnitID:     c.UnitID,
		DocumentID: c.DocumentID,
		Title:      c.Title,
		Text:       text,
		Score:      score,
		Method:     method,
		index:      index,
	}
}

// InputIndex returns the candidate's position in the search input.
func (s ScoredCandidate) InputIndex() int {
	return s.index
}

// RetrievalOptions bounds a single search.
// Zero values are replaced by the configured RetrievalSettings. NoMinScore
// and NoTopicBoost switch the threshold and boost off for one call.
type RetrievalOptions struct {
	// Topic boosts lexical matches from documents with this topic tag.
	Topic string

	// RestrictTopic loads only candidates whose document has Topic.
	RestrictTopic bool

	// TopicBoost is added to the lexical score of candidates in Topic.
	TopicBoost float64

	// NoTopicBoost disables the boost regardless of TopicBoost.
	NoTopicBoost bool

	// MaxContextChars is the total character budget of the bundle.
	MaxContextChars int

	// MaxCandidateChars truncates each candidate's text before scoring.
	MaxCandidateChars int

	// MinScore discards candidates scoring below it.
	MinScore float64

	// NoMinScore keeps every candidate regardless of MinScore.
	NoMinScore bool

	// TopK caps the number of included candidates.
	TopK int

	// Granularity selects section or document candidates.
	Granularity Granularity
}

// WithDefaults fills zero fields from settings.
func (o RetrievalOptions) WithDefaults(s RetrievalSettings) RetrievalOptions {
	if o.MaxContextChars <= 0 {
		o.MaxContextChars = s.MaxContextChars
	}
	if o.MaxCandidateChars <= 0 {
		o.MaxCandidateChars = s.MaxCandidateChars
	}
	switch {
	case o.NoMinScore:
		o.MinScore = 0
	case o.MinScore <= 0:
		o.MinScore = s.MinScore
	}
	if o.TopK <= 0 {
		o.TopK = s.TopK
	}
	switch {
	case o.NoTopicBoost:
		o.TopicBoost = 0
	case o.TopicBoost <= 0:
		o.TopicBoost = s.TopicBoost
	}
	if !o.Granularity.IsValid() {
		o.Granularity = s.Granularity
	}
	return o
}

// ContextBundle is the ranked, budgeted set of passages for one query.
type ContextBundle struct {
	// Query is the trimmed query the bundle was built for.
	Query string `json:"query"`

	// Items are the included candidates in ranked order.
	Items []ScoredCandidate `json:"items"`

	// TotalChars is the combined character length of all item texts.
	TotalChars int `json:"total_chars"`

	// Budget is the character budget the bundle was built under.
	Budget int `json:"budget"`

	// Degraded is true when the query could not be embedded.
	Degraded bool `json:"degraded"`

	// Stats describes how candidates were scored and why they were dropped.
	Stats BundleStats `json:"stats"`
}

// BundleStats is per-query observability for the surrounding system.
type BundleStats struct {
	Considered      int `json:"considered"`
	VectorScored    int `json:"vector_scored"`
	LexicalScored   int `json:"lexical_scored"`
	MalformedVector int `json:"malformed_vectors"`
	ModelMismatch   int `json:"model_mismatches"`
	BelowThreshold  int `json:"below_threshold"`
	OverBudget      int `json:"over_budget"`
	OverTopK        int `json:"over_top_k"`
}

// Empty reports whether no context is available.
func (b *ContextBundle) Empty() bool {
	return b == nil || len(b.Items) == 0
}

// Text renders the bundle as attributed passages for a generator prompt.
func (b *ContextBundle) Text() string {
	if b.Empty() {
		return ""
	}
	var sb strings.Builder
	for i := range b.Items {
		item := &b.Items[i]
		fmt.Fprintf(&sb, "[%d] %s (document %s, score %.2f)\n%s\n\n",
			i+1, item.Title, item.DocumentID, item.Score, item.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}
