// Package driving defines interfaces that external actors (CLI, MCP) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// Every caller that needs context for a question goes through CorpusService,
// which delegates scoring to the single RetrievalEngine.
//
// Implementations of these interfaces live in internal/core/services.
package driving
