package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

var (
	searchFlags   retrievalFlags
	searchJSON    bool
	searchContext bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Retrieve the passages most relevant to a query",
	Long: `Scores every active passage against the query and packs the best ones
into a context bundle under the character budget.

Passages with a stored vector from the active embedding model are scored by
cosine similarity; the rest by term overlap. Without an embedding provider
every passage is scored by term overlap.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchFlags.bind(searchCmd)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the bundle as JSON")
	searchCmd.Flags().BoolVar(&searchContext, "context", false, "print only the attributed passages, for piping")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return errors.New("search service not configured")
	}

	query := strings.Join(args, " ")
	bundle, err := corpusService.Retrieve(cmd.Context(), query, searchFlags.options())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch {
	case searchJSON:
		return outputBundleJSON(cmd, bundle)
	case searchContext:
		cmd.Println(bundle.Text())
		return nil
	default:
		outputBundle(cmd, bundle)
		return nil
	}
}

func outputBundleJSON(cmd *cobra.Command, bundle *domain.ContextBundle) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputBundle(cmd *cobra.Command, bundle *domain.ContextBundle) {
	if bundle.Empty() {
		cmd.Println("No passages found.")
		printStats(cmd, bundle)
		return
	}

	cmd.Println("Passages:")
	cmd.Println()
	for i := range bundle.Items {
		item := &bundle.Items[i]
		cmd.Printf("  [%d] %s (%.2f, %s)\n", i+1, item.Title, item.Score, item.Method)
		cmd.Printf("      %s\n", snippet(item.Text, 160))
		cmd.Println()
	}
	printStats(cmd, bundle)
}

func printStats(cmd *cobra.Command, bundle *domain.ContextBundle) {
	s := bundle.Stats
	cmd.Printf("Context: %d/%d chars, %d of %d candidates", bundle.TotalChars, bundle.Budget,
		len(bundle.Items), s.Considered)
	if dropped := s.BelowThreshold + s.OverBudget + s.OverTopK; dropped > 0 {
		cmd.Printf(" (%d below threshold, %d over budget, %d over top-k)",
			s.BelowThreshold, s.OverBudget, s.OverTopK)
	}
	cmd.Println()
	if bundle.Degraded {
		cmd.Println("Note: the query could not be embedded; passages were scored by term overlap.")
	}
	if s.ModelMismatch > 0 || s.MalformedVector > 0 {
		cmd.Printf("Note: %d stale and %d unreadable vectors were ignored; run 'lexis reconcile'.\n",
			s.ModelMismatch, s.MalformedVector)
	}
}

// snippet collapses whitespace and cuts text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-3]) + "..."
}
