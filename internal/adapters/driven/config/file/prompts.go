package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads generator prompts from user-editable files on disk,
// falling back to built-in defaults.
//
// Files are created lazily on first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts are written as the initial content of new prompt files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are a study assistant for official exam candidates.
Answer using the reference passages when they are relevant and cite them by their number, e.g. [1].
If the passages do not contain the answer, say so before answering from general knowledge.`,

	driven.PromptQuestionGeneration: `Write %d multiple-choice exam questions about: %s
Each question has four options (a-d), exactly one correct. Mark the correct option and cite the passage it comes from.`,
}

// requiredVerbs lists the fmt verbs a prompt must keep, in order.
var requiredVerbs = map[string][]string{
	driven.PromptQuestionGeneration: {"%d", "%s"},
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.lexis/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".lexis", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// A file that is missing, empty or has lost its placeholders yields the
// built-in default.
func (s *PromptStore) Load(name string) (string, error) {
	def, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return def, nil
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	switch {
	case err != nil:
		logger.Debug("Prompt %q: %v, using default", name, err)
		prompt = def
	case prompt == "":
		prompt = def
	case !hasVerbs(prompt, requiredVerbs[name]):
		logger.Warn("Prompt %q is missing placeholders %v, using default",
			name, requiredVerbs[name])
		prompt = def
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("Prompt directory unavailable, using defaults: %v", s.initErr)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// hasVerbs reports whether verbs appear in prompt in the given order.
func hasVerbs(prompt string, verbs []string) bool {
	rest := prompt
	for _, v := range verbs {
		i := strings.Index(rest, v)
		if i < 0 {
			return false
		}
		rest = rest[i+len(v):]
	}
	return true
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Lexis Prompts

These files are the prompts lexis sends to the answer generator.

## Files

- ` + "`answer_system.txt`" + ` - System prompt for ` + "`lexis ask`" + `
- ` + "`question_generation.txt`" + ` - Request used by ` + "`lexis questions`" + `

## Customisation

Edit a file to change the generator's behaviour. Changes apply to the next
command. Delete a file to restore its default.

## Placeholders

` + "`question_generation.txt`" + ` must keep ` + "`%d`" + ` (question count) followed by
` + "`%s`" + ` (subject). A file without them is ignored in favour of the default.
`
	return os.WriteFile(path, []byte(content), 0600)
}
