package mcp

import (
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Corpus retrieves context bundles. Required.
	Corpus driving.CorpusService

	// Ask answers questions from retrieved context. Optional.
	Ask driving.AskService

	// Document exposes stored documents as resources. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Corpus == nil {
		return ErrMissingCorpusService
	}
	return nil
}
