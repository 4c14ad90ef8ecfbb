package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long: `Print the lexis version. With --verbose, also print the Go toolchain,
the VCS revision the binary was built from and the embedding model whose
vectors the corpus is expected to hold.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("lexis version %s\n", version)
		if !verbose {
			return
		}
		cmd.Printf("  go:        %s\n", runtime.Version())
		cmd.Printf("  revision:  %s\n", valueOr(vcsRevision(), "unknown"))
		cmd.Printf("  embedding: %s\n", embeddingModelTag())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

// embeddingModelTag names the model vectors are tagged with, or why there
// is none.
func embeddingModelTag() string {
	if settingsService == nil {
		return "unknown"
	}
	settings, err := settingsService.Get()
	if err != nil || !settings.Embedding.IsConfigured() {
		return "none (lexical scoring only)"
	}
	return string(settings.Embedding.Provider) + "/" + settings.Embedding.Model
}
