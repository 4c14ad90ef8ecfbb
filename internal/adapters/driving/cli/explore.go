package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexis/internal/adapters/driving/tui"
)

var exploreFlags retrievalFlags

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse retrieved context interactively",
	Long: `Open a terminal interface to run queries, step through the ranked
passages and ask the LLM provider about them.`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

func init() {
	exploreFlags.bind(exploreCmd)
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, _ []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}
	ports := &tui.Ports{Corpus: corpusService, Ask: askService}
	err := tui.Run(cmd.Context(), ports, exploreFlags.options())
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
