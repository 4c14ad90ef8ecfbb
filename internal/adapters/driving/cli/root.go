// Package cli provides the cobra command tree of the lexis binary.
package cli

import (
	"context"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexis/internal/core/ports/driving"
	"github.com/custodia-labs/lexis/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var verbose bool

// Services injected by the composition root. Any of them may be nil, in which
// case the commands that need it report it as not configured.
var (
	corpusService    driving.CorpusService
	ingestionService driving.IngestionService
	syncService      driving.SyncService
	documentService  driving.DocumentService
	askService       driving.AskService
	settingsService  driving.SettingsService
	metricsHandler   http.Handler
)

// Services holds the driving ports used by the CLI.
type Services struct {
	Corpus    driving.CorpusService
	Ingestion driving.IngestionService
	Sync      driving.SyncService
	Document  driving.DocumentService
	Ask       driving.AskService
	Settings  driving.SettingsService

	// Metrics serves /metrics in MCP HTTP mode. Optional.
	Metrics http.Handler
}

var rootCmd = &cobra.Command{
	Use:   "lexis",
	Short: "Study-material retrieval for exam preparation",
	Long: `lexis ingests statutes, syllabi and notes, splits them into articles and
topics, and assembles the most relevant passages for a question under a
character budget. Answers and practice questions are generated from those
passages when an LLM provider is configured.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	// cobra's Print helpers write to stderr unless an output is set.
	rootCmd.SetOut(os.Stdout)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	corpusService = s.Corpus
	ingestionService = s.Ingestion
	syncService = s.Sync
	documentService = s.Document
	askService = s.Ask
	settingsService = s.Settings
	metricsHandler = s.Metrics
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as ingest --watch and mcp serve.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
