package cli

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

var (
	reconcileTopic       string
	reconcileConcurrency int
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Embed documents that lack a vector from the active model",
	Long: `Re-embeds every document (and its sections) whose stored vector is
missing or was produced by a different embedding model. Run it after
changing embedding.model or when ingestion happened while the provider
was unreachable. Documents are processed independently; one failure does
not stop the others.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVarP(&reconcileTopic, "topic", "t", "", "only documents with this topic")
	reconcileCmd.Flags().IntVarP(&reconcileConcurrency, "concurrency", "c", 0, "documents embedded in parallel (default 4)")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	report, err := ingestionService.Reconcile(cmd.Context(), driving.ReconcileOptions{
		Topic:       reconcileTopic,
		Concurrency: reconcileConcurrency,
	})
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return fmt.Errorf("%w: configure embedding.provider first", err)
	}
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	cmd.Printf("Checked %d documents: %d embedded, %d up to date, %d failed (%s)\n",
		report.Checked, report.Embedded, report.Skipped, len(report.Failed), report.Duration.Round(time.Millisecond))

	ids := make([]string, 0, len(report.Failed))
	for id := range report.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		cmd.PrintErrf("  %s: %s\n", id, report.Failed[id])
	}
	if len(ids) > 0 {
		return fmt.Errorf("%d document(s) could not be embedded", len(ids))
	}
	return nil
}
