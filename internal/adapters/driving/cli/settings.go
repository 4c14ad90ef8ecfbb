package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/lexis/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in ~/.lexis/config.toml.

API keys may also come from LEXIS_EMBEDDING_API_KEY, LEXIS_LLM_API_KEY or
OPENAI_API_KEY, including from a .env file in the working directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Validates and stores one setting. When the value of an api_key setting
is omitted it is read from the terminal without echo.

Examples:
  lexis settings set embedding.provider ollama
  lexis settings set retrieval.max_context_chars 6000
  lexis settings set llm.api_key`,
	// Values such as -1 are arguments, not shorthand flags.
	DisableFlagParsing: true,
	Args:               cobra.RangeArgs(1, 2),
	RunE:               runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every setting key",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if settingsService == nil {
			return
		}
		for _, k := range settingsService.Keys() {
			cmd.Println(k)
		}
	},
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive provider setup",
	Long:  `Run an interactive wizard to choose the embedding and LLM providers.`,
	RunE:  runSettingsWizard,
}

// stdinFd is the file descriptor checked for an interactive terminal.
var stdinFd = int(os.Stdin.Fd())

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	e := settings.Embedding
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", e.Provider.Description())
	if e.Provider.IsValid() {
		cmd.Printf("  Model: %s\n", e.Model)
		cmd.Printf("  Base URL: %s\n", valueOr(e.BaseURL, "(default)"))
	}
	if e.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", apiKeyStatus(e.APIKey))
	}
	cmd.Printf("  Timeout: %s\n", e.Timeout)
	cmd.Printf("  Max input: %d chars, %d windows, %d overlap\n", e.MaxInputChars, e.MaxWindows, e.WindowOverlap)
	cmd.Printf("  Section vectors: %t\n", e.EmbedSections)
	cmd.Printf("  Status: %s\n", configuredStatus(e.IsConfigured()))
	cmd.Println()

	r := settings.Retrieval
	cmd.Println("[Retrieval]")
	cmd.Printf("  Granularity: %s\n", r.Granularity)
	cmd.Printf("  Context budget: %d chars\n", r.MaxContextChars)
	cmd.Printf("  Candidate cap: %d chars\n", r.MaxCandidateChars)
	cmd.Printf("  Min score: %.2f\n", r.MinScore)
	cmd.Printf("  Top K: %d\n", r.TopK)
	cmd.Printf("  Topic boost: %.2f\n", r.TopicBoost)
	cmd.Println()

	cmd.Println("[Chunker]")
	cmd.Printf("  Min section: %d chars\n", settings.Chunker.MinSectionChars)
	cmd.Printf("  Min paragraph: %d chars\n", settings.Chunker.MinParagraphChars)
	cmd.Println()

	l := settings.LLM
	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", l.Provider.Description())
	if l.Provider.IsValid() {
		cmd.Printf("  Model: %s\n", l.Model)
		cmd.Printf("  Base URL: %s\n", valueOr(l.BaseURL, "(default)"))
	}
	if l.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", apiKeyStatus(l.APIKey))
	}
	cmd.Printf("  Status: %s\n", configuredStatus(l.IsConfigured()))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	if key == "-h" || key == "--help" {
		return cmd.Help()
	}
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case strings.HasSuffix(key, "api_key"):
		cmd.Printf("Enter value for %s: ", key)
		value = readPassword(cmd.InOrStdin())
		cmd.Println()
	default:
		return fmt.Errorf("missing value for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	if strings.HasSuffix(key, "api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Lexis Settings Wizard")
	cmd.Println("=====================")
	cmd.Println()

	in := cmd.InOrStdin()
	reader := bufio.NewReader(in)

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	cmd.Println("Without one, passages are ranked by term overlap only.")
	if err := configureProvider(cmd, reader, in, "embedding", domain.DefaultEmbeddingModels(),
		settingsService.ValidateEmbeddingConfig); err != nil {
		return err
	}

	cmd.Println("Step 2: LLM Provider")
	cmd.Println("--------------------")
	cmd.Println("Required for 'ask' and 'questions'.")
	if err := configureProvider(cmd, reader, in, "llm", domain.DefaultLLMModels(),
		settingsService.ValidateLLMConfig); err != nil {
		return err
	}

	cmd.Println("Setup complete.")
	return nil
}

var wizardProviders = []domain.AIProvider{domain.AIProviderNone, domain.AIProviderOllama, domain.AIProviderOpenAI}

func configureProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	in io.Reader,
	section string,
	defaults map[domain.AIProvider]string,
	validate func() error,
) error {
	for i, p := range wizardProviders {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := wizardProviders[parseChoice(readLine(reader), len(wizardProviders), 1)-1]

	if err := settingsService.Set(section+".provider", string(provider)); err != nil {
		return fmt.Errorf("failed to set %s provider: %w", section, err)
	}
	if provider == domain.AIProviderNone {
		cmd.Println()
		return nil
	}

	defaultModel := defaults[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}
	if err := settingsService.Set(section+".model", model); err != nil {
		return err
	}

	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key (empty to use the environment): ")
		var apiKey string
		if isTerminal() {
			apiKey = readPassword(in)
		} else {
			apiKey = readLine(reader)
		}
		cmd.Println()
		if apiKey != "" {
			if err := settingsService.Set(section+".api_key", apiKey); err != nil {
				return err
			}
		}
	}

	cmd.Print("Validating configuration... ")
	if err := validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", section, err)
	}
	cmd.Println("OK")
	cmd.Printf("%s provider configured: %s (%s)\n\n", section, provider.Description(), model)
	return nil
}

// Helper functions.

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func apiKeyStatus(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

// maskAPIKey masks an API key for display.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func isTerminal() bool {
	return term.IsTerminal(stdinFd)
}

// readPassword reads a secret without echo when stdin is a terminal,
// otherwise one line from in.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if isTerminal() {
		password, err := term.ReadPassword(stdinFd)
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}
