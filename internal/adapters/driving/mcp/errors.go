// Package mcp provides an MCP (Model Context Protocol) server adapter for lexis.
// It lets AI assistants pull budgeted study context and ask grounded questions.
package mcp

import "errors"

// ErrMissingCorpusService is returned when the corpus service is not provided.
var ErrMissingCorpusService = errors.New("mcp: corpus service is required")

// ErrAskUnavailable is returned by the ask tools when no generator is wired.
var ErrAskUnavailable = errors.New("mcp: no LLM provider configured")
