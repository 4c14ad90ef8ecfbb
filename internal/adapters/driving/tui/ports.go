// Package tui provides the interactive context explorer for lexis.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/lexis/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the explorer.
type Ports struct {
	// Corpus retrieves context bundles. Required.
	Corpus driving.CorpusService

	// Ask answers the current query from its context. Optional.
	Ask driving.AskService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Corpus == nil {
		return ErrMissingCorpusService
	}
	return nil
}
