package mcp

import (
	"context"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

// mockCorpusService is a mock implementation of driving.CorpusService.
type mockCorpusService struct {
	bundle   *domain.ContextBundle
	err      error
	gotQuery string
	gotOpts  domain.RetrievalOptions
}

func (m *mockCorpusService) Retrieve(
	_ context.Context,
	query string,
	opts domain.RetrievalOptions,
) (*domain.ContextBundle, error) {
	m.gotQuery = query
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.bundle == nil {
		return &domain.ContextBundle{Query: query}, nil
	}
	return m.bundle, nil
}

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer   *driving.Answer
	err      error
	gotCount int
	gotOpts  domain.RetrievalOptions
}

func (m *mockAskService) Answer(
	_ context.Context,
	_ string,
	opts domain.RetrievalOptions,
) (*driving.Answer, error) {
	m.gotOpts = opts
	return m.answer, m.err
}

func (m *mockAskService) GenerateQuestions(
	_ context.Context,
	_ string,
	count int,
	opts domain.RetrievalOptions,
) (*driving.Answer, error) {
	m.gotCount = count
	m.gotOpts = opts
	return m.answer, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	sections  []domain.Section
	err       error
	gotFilter domain.DocumentFilter
}

func (m *mockDocumentService) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	m.gotFilter = filter
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Sections(_ context.Context, _ string) ([]domain.Section, error) {
	return m.sections, m.err
}
