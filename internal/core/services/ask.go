package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
	"github.com/custodia-labs/lexis/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// Question counts accepted by GenerateQuestions.
const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
)

// Built-in prompts used when no PromptStore is configured.
const (
	defaultAnswerSystem = `You are a study assistant for official exam candidates.
Answer using the reference passages when they are relevant and cite them by their number, e.g. [1].
If the passages do not contain the answer, say so before answering from general knowledge.`

	defaultQuestionGeneration = `Write %d multiple-choice exam questions about: %s
Each question has four options (a-d), exactly one correct. Mark the correct option and cite the passage it comes from.`
)

// AskService answers questions and drafts exam questions from corpus context.
type AskService struct {
	corpus    driving.CorpusService
	generator driven.AnswerGenerator
	prompts   driven.PromptStore
	chatOpts  driven.ChatOptions
}

// NewAskService creates an ask service.
// The generator and prompts parameters are optional (can be nil); without a
// generator every call returns domain.ErrLLMUnavailable.
func NewAskService(
	corpus driving.CorpusService, generator driven.AnswerGenerator, prompts driven.PromptStore,
) *AskService {
	return &AskService{
		corpus:    corpus,
		generator: generator,
		prompts:   prompts,
		chatOpts:  driven.ChatOptions{MaxTokens: 1024, Temperature: 0.2},
	}
}

// Answer responds to a question grounded on retrieved passages.
func (s *AskService) Answer(
	ctx context.Context, question string, opts domain.RetrievalOptions,
) (*driving.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if s.generator == nil {
		return nil, domain.ErrLLMUnavailable
	}

	bundle, err := s.corpus.Retrieve(ctx, question, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: s.prompt(driven.PromptAnswerSystem, defaultAnswerSystem)},
		{Role: "user", Content: userMessage(bundle, "Question: "+question)},
	}
	return s.chat(ctx, messages, bundle)
}

// GenerateQuestions drafts multiple-choice questions about subject.
// Count is clamped to [1, MaxQuestionCount]; zero means DefaultQuestionCount.
func (s *AskService) GenerateQuestions(
	ctx context.Context, subject string, count int, opts domain.RetrievalOptions,
) (*driving.Answer, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is empty", domain.ErrInvalidInput)
	}
	if s.generator == nil {
		return nil, domain.ErrLLMUnavailable
	}
	switch {
	case count <= 0:
		count = DefaultQuestionCount
	case count > MaxQuestionCount:
		count = MaxQuestionCount
	}

	bundle, err := s.corpus.Retrieve(ctx, subject, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	tmpl := s.prompt(driven.PromptQuestionGeneration, defaultQuestionGeneration)
	messages := []driven.ChatMessage{
		{Role: "user", Content: userMessage(bundle, fmt.Sprintf(tmpl, count, subject))},
	}
	return s.chat(ctx, messages, bundle)
}

func (s *AskService) chat(
	ctx context.Context, messages []driven.ChatMessage, bundle *domain.ContextBundle,
) (*driving.Answer, error) {
	logger.Debug("Generating with %d context passages", len(bundle.Items))
	text, err := s.generator.Chat(ctx, messages, s.chatOpts)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return &driving.Answer{
		Text:   strings.TrimSpace(text),
		Bundle: bundle,
		Model:  s.generator.ModelName(),
	}, nil
}

func (s *AskService) prompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	p, err := s.prompts.Load(name)
	if err != nil || strings.TrimSpace(p) == "" {
		logger.Warn("Prompt %q unavailable, using built-in: %v", name, err)
		return fallback
	}
	return p
}

// userMessage prefixes the request with the attributed passages.
func userMessage(bundle *domain.ContextBundle, request string) string {
	if bundle.Empty() {
		return "No reference passages were found for this request.\n\n" + request
	}
	return "Reference passages:\n\n" + bundle.Text() + "\n\n" + request
}
