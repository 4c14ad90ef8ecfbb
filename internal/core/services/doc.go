// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval path is RetrievalEngine, fed by CorpusService and backed by
// EmbeddingService. Ingestion writes through IngestionService.
package services
