package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

var (
	ingestTopic    string
	ingestTitle    string
	ingestID       string
	ingestInactive bool
	ingestWatch    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Add study material to the corpus",
	Long: `Ingests plain-text (.txt) and Markdown (.md) files. Directories are read
recursively; files already stored with the same content are skipped.
Each file always maps to the same document, so re-ingesting replaces it.

Use "-" to read text from stdin; --title is then required.

Examples:
  lexis ingest temario/ --topic pensiones
  lexis ingest lgss.txt estatuto.md
  pdftotext ley.pdf - | lexis ingest - --title "Ley 39/2015"
  lexis ingest temario/ --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTopic, "topic", "t", "", "topic tag for every ingested document")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (stdin only)")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document ID (stdin only; default random)")
	ingestCmd.Flags().BoolVar(&ingestInactive, "inactive", false, "store documents without making them searchable")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep running and apply changes in the given directories")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil || syncService == nil {
		return errors.New("ingestion service not configured")
	}

	opts := driving.SyncOptions{Topic: ingestTopic, Inactive: ingestInactive}
	var dirs []string
	var failed int

	for _, arg := range args {
		if arg == "-" {
			if err := ingestStdin(cmd); err != nil {
				return err
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", arg, err)
		}
		if info.IsDir() {
			dirs = append(dirs, arg)
			report, err := syncService.Sync(cmd.Context(), arg, opts)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", arg, err)
			}
			failed += len(report.Failed)
			outputSyncReport(cmd, arg, report)
			continue
		}

		result, err := syncService.IngestFile(cmd.Context(), arg, opts)
		if err != nil {
			if errors.Is(err, domain.ErrIntegrity) {
				return err
			}
			failed++
			cmd.PrintErrf("  %s: %v\n", arg, err)
			continue
		}
		outputIngestResult(cmd, arg, result)
	}

	if ingestWatch {
		if len(dirs) == 0 {
			return errors.New("--watch needs at least one directory")
		}
		return watchDirs(cmd, dirs, opts)
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be ingested", failed)
	}
	return nil
}

func ingestStdin(cmd *cobra.Command) error {
	if strings.TrimSpace(ingestTitle) == "" {
		return errors.New("--title is required when reading from stdin")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	result, err := ingestionService.Ingest(cmd.Context(), driving.IngestRequest{
		ID:       ingestID,
		Title:    ingestTitle,
		Content:  string(data),
		Topic:    ingestTopic,
		Inactive: ingestInactive,
	})
	if err != nil {
		return fmt.Errorf("ingest stdin: %w", err)
	}
	outputIngestResult(cmd, "stdin", result)
	return nil
}

func watchDirs(cmd *cobra.Command, dirs []string, opts driving.SyncOptions) error {
	cmd.Printf("Watching %s (Ctrl+C to stop)...\n", strings.Join(dirs, ", "))

	g, ctx := errgroup.WithContext(cmd.Context())
	for _, dir := range dirs {
		g.Go(func() error {
			return syncService.Watch(ctx, dir, opts, func(e driving.SyncEvent) {
				if e.Err != nil {
					cmd.PrintErrf("  %s %s: %v\n", e.Type, e.Path, e.Err)
					return
				}
				cmd.Printf("  %s %s (%d sections)\n", e.Type, e.Path, e.Sections)
			})
		})
	}
	return g.Wait()
}

func outputIngestResult(cmd *cobra.Command, name string, r *driving.IngestResult) {
	action := "Ingested"
	if r.Replaced {
		action = "Replaced"
	}
	cmd.Printf("%s %s as %s: %d sections", action, name, r.DocumentID, r.Sections)
	if r.DocumentEmbedded || r.SectionsEmbedded > 0 {
		cmd.Printf(", %d vectors", r.SectionsEmbedded+boolInt(r.DocumentEmbedded))
	}
	cmd.Println()
}

func outputSyncReport(cmd *cobra.Command, dir string, r *driving.SyncReport) {
	cmd.Printf("Ingested %s: %d files, %d ingested, %d unchanged, %d sections (%s)\n",
		dir, r.Files, r.Ingested, r.Unchanged, r.Sections, r.Duration.Round(time.Millisecond))
	paths := make([]string, 0, len(r.Failed))
	for p := range r.Failed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		cmd.PrintErrf("  %s: %s\n", p, r.Failed[p])
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
