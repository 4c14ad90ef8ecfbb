package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

// retrievalFlags are the per-call overrides shared by search, ask and questions.
// Zero values fall back to the configured settings.
type retrievalFlags struct {
	topic         string
	restrictTopic bool
	budget        int
	topK          int
	minScore      float64
	noMinScore    bool
	noTopicBoost  bool
	granularity   string
}

func (f *retrievalFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.topic, "topic", "t", "", "boost passages from documents with this topic")
	cmd.Flags().BoolVar(&f.restrictTopic, "only-topic", false, "search only documents with --topic")
	cmd.Flags().IntVarP(&f.budget, "budget", "b", 0, "context budget in characters (default from settings)")
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "maximum number of passages (default from settings)")
	cmd.Flags().Float64Var(&f.minScore, "min-score", 0, "relevance threshold in [0,1] (default from settings)")
	cmd.Flags().BoolVar(&f.noMinScore, "no-min-score", false, "keep passages regardless of relevance")
	cmd.Flags().BoolVar(&f.noTopicBoost, "no-topic-boost", false, "do not boost passages from --topic")
	cmd.Flags().StringVar(&f.granularity, "granularity", "", "candidate unit: section or document")
}

func (f *retrievalFlags) options() domain.RetrievalOptions {
	return domain.RetrievalOptions{
		Topic:           f.topic,
		RestrictTopic:   f.restrictTopic && f.topic != "",
		MaxContextChars: f.budget,
		TopK:            f.topK,
		MinScore:        f.minScore,
		NoMinScore:      f.noMinScore,
		NoTopicBoost:    f.noTopicBoost,
		Granularity:     domain.Granularity(f.granularity),
	}
}
