package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error; known names fall back to a built-in default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnswerSystem is the system prompt for answering from context.
	// This prompt has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptQuestionGeneration asks for multiple-choice exam questions.
	// The template expects %d (question count) and %s (topic) placeholders.
	PromptQuestionGeneration = "question_generation"
)
