package tui

import "errors"

// ErrMissingCorpusService is returned when the corpus service is not provided.
var ErrMissingCorpusService = errors.New("tui: corpus service is required")

// ErrInvalidPorts is returned when ports are nil.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
