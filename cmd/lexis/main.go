// Command lexis ingests study material and assembles budgeted context for
// exam questions.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/lexis/internal/adapters/driven/ai"
	"github.com/custodia-labs/lexis/internal/adapters/driven/config/file"
	"github.com/custodia-labs/lexis/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexis/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lexis/internal/adapters/driving/cli"
	"github.com/custodia-labs/lexis/internal/chunker"
	"github.com/custodia-labs/lexis/internal/connectors/filesystem"
	"github.com/custodia-labs/lexis/internal/core/ports/driven"
	"github.com/custodia-labs/lexis/internal/core/services"
	"github.com/custodia-labs/lexis/internal/logger"
	"github.com/custodia-labs/lexis/internal/metrics"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var configStore driven.ConfigStore
	if cs, err := file.NewConfigStore(""); err == nil {
		configStore = cs
	} else {
		logger.Warn("config: %v; settings will not be saved", err)
		configStore = memory.NewConfigStore()
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		// Keep the settings commands usable so the file can be repaired.
		logger.Warn("%v; using defaults", err)
		defaults := settingsService.GetDefaults()
		settings = &defaults
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		logger.Error("store: %v", err)
		return 1
	}
	defer store.Close()

	var prompts driven.PromptStore
	if ps, err := file.NewPromptStore(""); err == nil {
		prompts = ps
	} else {
		logger.Warn("prompts: %v; using built-in prompts", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	aiResult := ai.Init(ctx, settings, m)
	defer aiResult.Close()
	for _, w := range aiResult.Warnings {
		logger.Warn("%s", w)
	}
	if aiResult.FellBack {
		logger.Warn("retrieval falls back to lexical scoring")
	}

	embeddings := services.NewEmbeddingService(
		aiResult.Embedding, services.EmbeddingConfigFromSettings(settings.Embedding), m)
	sectioner := chunker.New(
		chunker.WithMinSectionChars(settings.Chunker.MinSectionChars),
		chunker.WithMinParagraphChars(settings.Chunker.MinParagraphChars),
	)

	docs := store.DocumentStore()
	engine := services.NewRetrievalEngine(embeddings, settings.Retrieval, m)
	corpus := services.NewCorpusService(docs, engine, settings.Retrieval)
	ingestion := services.NewIngestionService(docs, sectioner, embeddings, settings.Embedding.EmbedSections, m)
	sync := services.NewSyncService(ingestion, docs, filesystem.Open, filesystem.ReadFile)

	svc := cli.Services{
		Corpus:    corpus,
		Ingestion: ingestion,
		Sync:      sync,
		Document:  services.NewDocumentService(docs),
		Ask:       services.NewAskService(corpus, aiResult.Generator, prompts),
		Settings:  settingsService,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
	cli.SetServices(svc)
	cli.SetVersion(version)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
