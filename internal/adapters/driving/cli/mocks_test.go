package cli

import (
	"bytes"
	"context"
	"errors"

	"github.com/custodia-labs/lexis/internal/core/domain"
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

type mockCorpusService struct {
	bundle   *domain.ContextBundle
	err      error
	gotQuery string
	gotOpts  domain.RetrievalOptions
}

func (m *mockCorpusService) Retrieve(
	_ context.Context, query string, opts domain.RetrievalOptions,
) (*domain.ContextBundle, error) {
	m.gotQuery = query
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.bundle == nil {
		return &domain.ContextBundle{Query: query, Budget: 4000}, nil
	}
	return m.bundle, nil
}

type mockIngestionService struct {
	result     *driving.IngestResult
	report     *driving.ReconcileReport
	err        error
	gotRequest driving.IngestRequest
	gotDeleted string
	gotActive  *bool
	gotOptions driving.ReconcileOptions
}

func (m *mockIngestionService) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	m.gotRequest = req
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &driving.IngestResult{DocumentID: "doc-new", Sections: 1}, nil
	}
	return m.result, nil
}

func (m *mockIngestionService) Delete(_ context.Context, documentID string) error {
	m.gotDeleted = documentID
	return m.err
}

func (m *mockIngestionService) SetActive(_ context.Context, _ string, active bool) error {
	m.gotActive = &active
	return m.err
}

func (m *mockIngestionService) Reconcile(
	_ context.Context, opts driving.ReconcileOptions,
) (*driving.ReconcileReport, error) {
	m.gotOptions = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.report == nil {
		return &driving.ReconcileReport{Failed: map[string]string{}}, nil
	}
	return m.report, nil
}

type mockSyncService struct {
	result     *driving.IngestResult
	report     *driving.SyncReport
	err        error
	files      []string
	dirs       []string
	gotOptions driving.SyncOptions
}

func (m *mockSyncService) IngestFile(
	_ context.Context, path string, opts driving.SyncOptions,
) (*driving.IngestResult, error) {
	m.files = append(m.files, path)
	m.gotOptions = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &driving.IngestResult{DocumentID: "doc-file", Sections: 2}, nil
	}
	return m.result, nil
}

func (m *mockSyncService) Sync(_ context.Context, root string, opts driving.SyncOptions) (*driving.SyncReport, error) {
	m.dirs = append(m.dirs, root)
	m.gotOptions = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.report == nil {
		return &driving.SyncReport{Files: 1, Ingested: 1, Sections: 3, Failed: map[string]string{}}, nil
	}
	return m.report, nil
}

func (m *mockSyncService) Watch(
	ctx context.Context, root string, _ driving.SyncOptions, onEvent func(driving.SyncEvent),
) error {
	onEvent(driving.SyncEvent{Type: domain.ChangeUpdated, Path: root + "/notes.md", Sections: 2})
	<-ctx.Done()
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

type mockDocumentService struct {
	docs     []domain.Document
	doc      *domain.Document
	sections []domain.Section
	err      error
	filter   domain.DocumentFilter
}

func (m *mockDocumentService) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	m.filter = filter
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.doc, m.err
}

func (m *mockDocumentService) Sections(_ context.Context, _ string) ([]domain.Section, error) {
	return m.sections, m.err
}

type mockAskService struct {
	answer   *driving.Answer
	err      error
	gotCount int
}

func (m *mockAskService) Answer(_ context.Context, _ string, _ domain.RetrievalOptions) (*driving.Answer, error) {
	return m.answer, m.err
}

func (m *mockAskService) GenerateQuestions(
	_ context.Context, _ string, count int, _ domain.RetrievalOptions,
) (*driving.Answer, error) {
	m.gotCount = count
	return m.answer, m.err
}

type mockSettingsService struct {
	settings    *domain.AppSettings
	set         map[string]string
	setErr      error
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultAppSettings()
	return &mockSettingsService{settings: &s, set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) { return m.settings, nil }

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.provider", "retrieval.top_k"}
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.validateErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.validateErr }

// execute runs the root command with args and returns combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// testServices holds the mocks injected by setupTestServices.
type testServices struct {
	corpus    *mockCorpusService
	ingestion *mockIngestionService
	sync      *mockSyncService
	document  *mockDocumentService
	ask       *mockAskService
	settings  *mockSettingsService
}

// setupTestServices injects fresh mocks and returns a cleanup that removes
// them and resets every flag to its default.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		corpus:    &mockCorpusService{},
		ingestion: &mockIngestionService{},
		sync:      &mockSyncService{},
		document:  &mockDocumentService{},
		ask:       &mockAskService{},
		settings:  newMockSettingsService(),
	}
	// keep prompts on the injected reader even when tests run in a terminal
	fd := stdinFd
	stdinFd = -1
	SetServices(Services{
		Corpus:    ts.corpus,
		Ingestion: ts.ingestion,
		Sync:      ts.sync,
		Document:  ts.document,
		Ask:       ts.ask,
		Settings:  ts.settings,
	})
	return ts, func() {
		SetServices(Services{})
		stdinFd = fd
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

func resetFlags() {
	searchFlags, askFlags, questionsFlags, exploreFlags = retrievalFlags{}, retrievalFlags{}, retrievalFlags{}, retrievalFlags{}
	searchJSON, searchContext = false, false
	questionsCount = 0
	ingestTopic, ingestTitle, ingestID, ingestInactive, ingestWatch = "", "", "", false, false
	listTopic, listActiveOnly = "", false
	reconcileTopic, reconcileConcurrency = "", 0
	verbose = false
}
