package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `List, view, delete, activate or deactivate documents in the corpus.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document info and its sections",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its sections",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentActivateCmd = &cobra.Command{
	Use:   "activate [doc-id]",
	Short: "Make a document searchable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDocumentActive(cmd, args[0], true)
	},
}

var documentDeactivateCmd = &cobra.Command{
	Use:   "deactivate [doc-id]",
	Short: "Hide a document from search without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setDocumentActive(cmd, args[0], false)
	},
}

var (
	listTopic      string
	listActiveOnly bool
)

func init() {
	documentListCmd.Flags().StringVarP(&listTopic, "topic", "t", "", "only documents with this topic")
	documentListCmd.Flags().BoolVar(&listActiveOnly, "active", false, "only searchable documents")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentActivateCmd)
	documentCmd.AddCommand(documentDeactivateCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context(), domain.DocumentFilter{Topic: listTopic, ActiveOnly: listActiveOnly})
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		doc := &docs[i]
		state := ""
		if !doc.Active {
			state = " [inactive]"
		}
		cmd.Printf("  %s  %s%s\n", doc.ID, doc.Title, state)
		if doc.Topic != "" {
			cmd.Printf("    Topic: %s\n", doc.Topic)
		}
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	doc, err := documentService.Get(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	sections, err := documentService.Sections(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("failed to get sections: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:     %s\n", doc.Title)
	cmd.Printf("  Topic:     %s\n", valueOr(doc.Topic, "(none)"))
	cmd.Printf("  Active:    %t\n", doc.Active)
	cmd.Printf("  Chars:     %d\n", len([]rune(doc.Content)))
	cmd.Printf("  Vector:    %s\n", valueOr(doc.EmbeddingModel, "(none)"))
	cmd.Printf("  Processed: %s\n", doc.ProcessedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Created:   %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("    %s: %v\n", k, doc.Metadata[k])
		}
	}

	cmd.Printf("\n  Sections (%d):\n", len(sections))
	for i := range sections {
		sec := &sections[i]
		vector := ""
		if sec.EmbeddingModel != "" {
			vector = " *"
		}
		cmd.Printf("    %3d. %s (%d chars)%s\n", sec.Position+1, sec.Title, len([]rune(sec.Content)), vector)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	if err := ingestionService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func setDocumentActive(cmd *cobra.Command, docID string, active bool) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	if err := ingestionService.SetActive(cmd.Context(), docID, active); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	cmd.Printf("Document %s %s.\n", docID, state)
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
