package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

// RetrieveInput is the input schema for the retrieve_context tool.
type RetrieveInput struct {
	Query         string  `json:"query" jsonschema:"the question or keywords to retrieve study context for"`
	Topic         string  `json:"topic,omitempty" jsonschema:"topic tag to prefer, e.g. a subject name"`
	OnlyTopic     bool    `json:"only_topic,omitempty" jsonschema:"restrict results to documents tagged with topic"`
	MaxChars      int     `json:"max_chars,omitempty" jsonschema:"character budget of the assembled context"`
	TopK          int     `json:"top_k,omitempty" jsonschema:"maximum number of passages"`
	MinScore      float64 `json:"min_score,omitempty" jsonschema:"discard passages scoring below this value"`
	NoMinScore    bool    `json:"no_min_score,omitempty" jsonschema:"keep passages regardless of relevance"`
	NoTopicBoost  bool    `json:"no_topic_boost,omitempty" jsonschema:"do not prefer passages from topic"`
	WholeDocument bool    `json:"whole_document,omitempty" jsonschema:"rank whole documents instead of sections"`
}

// RetrieveOutput is the output schema for the retrieve_context tool.
type RetrieveOutput struct {
	Passages   []PassageOutput `json:"passages"`
	Count      int             `json:"count"`
	TotalChars int             `json:"total_chars"`
	Budget     int             `json:"budget"`
	Degraded   bool            `json:"degraded"`
	Context    string          `json:"context"`
}

// PassageOutput is one ranked passage.
type PassageOutput struct {
	DocumentID string  `json:"document_id"`
	UnitID     string  `json:"unit_id"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
	Method     string  `json:"method"`
	Text       string  `json:"text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the corpus"`
	Topic    string `json:"topic,omitempty" jsonschema:"topic tag to prefer"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"character budget of the context handed to the model"`
}

// QuestionsInput is the input schema for the generate_questions tool.
type QuestionsInput struct {
	Subject string `json:"subject" jsonschema:"what the questions should cover"`
	Count   int    `json:"count,omitempty" jsonschema:"number of questions (default 5)"`
	Topic   string `json:"topic,omitempty" jsonschema:"topic tag to prefer"`
}

// AnswerOutput is the output schema for the ask and generate_questions tools.
type AnswerOutput struct {
	Text     string          `json:"text"`
	Model    string          `json:"model"`
	Grounded bool            `json:"grounded"`
	Sources  []PassageOutput `json:"sources"`
}

const defaultQuestionCount = 5

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve the most relevant passages from the study corpus under a character budget",
	}, s.handleRetrieve)

	if s.ports.Ask == nil {
		return
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using passages retrieved from the study corpus",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_questions",
		Description: "Draft multiple-choice practice questions from the study corpus",
	}, s.handleQuestions)
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	opts := domain.RetrievalOptions{
		Topic:           input.Topic,
		RestrictTopic:   input.OnlyTopic && input.Topic != "",
		MaxContextChars: input.MaxChars,
		TopK:            input.TopK,
		MinScore:        input.MinScore,
		NoMinScore:      input.NoMinScore,
		NoTopicBoost:    input.NoTopicBoost,
	}
	if input.WholeDocument {
		opts.Granularity = domain.GranularityDocument
	}

	bundle, err := s.ports.Corpus.Retrieve(ctx, input.Query, opts)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	passages := toPassages(bundle)
	return nil, RetrieveOutput{
		Passages:   passages,
		Count:      len(passages),
		TotalChars: bundle.TotalChars,
		Budget:     bundle.Budget,
		Degraded:   bundle.Degraded,
		Context:    bundle.Text(),
	}, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if s.ports.Ask == nil {
		return nil, AnswerOutput{}, ErrAskUnavailable
	}
	answer, err := s.ports.Ask.Answer(ctx, input.Question, domain.RetrievalOptions{
		Topic:           input.Topic,
		MaxContextChars: input.MaxChars,
	})
	if err != nil {
		return nil, AnswerOutput{}, err
	}
	return nil, toAnswerOutput(answer), nil
}

func (s *Server) handleQuestions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuestionsInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if s.ports.Ask == nil {
		return nil, AnswerOutput{}, ErrAskUnavailable
	}
	count := input.Count
	if count <= 0 {
		count = defaultQuestionCount
	}
	answer, err := s.ports.Ask.GenerateQuestions(ctx, input.Subject, count, domain.RetrievalOptions{
		Topic: input.Topic,
	})
	if err != nil {
		return nil, AnswerOutput{}, err
	}
	return nil, toAnswerOutput(answer), nil
}

func toPassages(bundle *domain.ContextBundle) []PassageOutput {
	if bundle.Empty() {
		return []PassageOutput{}
	}
	out := make([]PassageOutput, len(bundle.Items))
	for i := range bundle.Items {
		item := &bundle.Items[i]
		out[i] = PassageOutput{
			DocumentID: item.DocumentID,
			UnitID:     item.UnitID,
			Title:      item.Title,
			Score:      item.Score,
			Method:     string(item.Method),
			Text:       item.Text,
		}
	}
	return out
}

func toAnswerOutput(a *driving.Answer) AnswerOutput {
	return AnswerOutput{
		Text:     a.Text,
		Model:    a.Model,
		Grounded: a.Grounded(),
		Sources:  toPassages(a.Bundle),
	}
}
