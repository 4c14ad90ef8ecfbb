package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

var (
	askFlags       retrievalFlags
	questionsFlags retrievalFlags
	questionsCount int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the retrieved passages",
	Long: `Retrieves the passages most relevant to the question and asks the
configured LLM to answer from them, citing passage numbers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var questionsCmd = &cobra.Command{
	Use:   "questions [subject]",
	Short: "Draft multiple-choice exam questions about a subject",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuestions,
}

func init() {
	askFlags.bind(askCmd)
	questionsFlags.bind(questionsCmd)
	questionsCmd.Flags().IntVarP(&questionsCount, "count", "n", 0, "number of questions (default 5, max 20)")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(questionsCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	answer, err := askService.Answer(cmd.Context(), strings.Join(args, " "), askFlags.options())
	if err != nil {
		return askError(err)
	}
	outputAnswer(cmd, answer)
	return nil
}

func runQuestions(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	answer, err := askService.GenerateQuestions(cmd.Context(), strings.Join(args, " "),
		questionsCount, questionsFlags.options())
	if err != nil {
		return askError(err)
	}
	outputAnswer(cmd, answer)
	return nil
}

func askError(err error) error {
	if errors.Is(err, domain.ErrLLMUnavailable) {
		return fmt.Errorf("%w: run 'lexis settings set llm.provider ollama' (or openai) first", err)
	}
	return err
}

func outputAnswer(cmd *cobra.Command, answer *driving.Answer) {
	cmd.Println(answer.Text)
	cmd.Println()

	if !answer.Grounded() {
		cmd.Println("Sources: none (no passage met the relevance threshold)")
		return
	}
	cmd.Println("Sources:")
	for i := range answer.Bundle.Items {
		item := &answer.Bundle.Items[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, item.Title, item.Score)
	}
	if answer.Bundle.Degraded {
		cmd.Println("Note: passages were scored by term overlap only.")
	}
}
