package cmd

import (
	"errors"

	"github.com/ethanolivertroy/antimirror/internal/clients"
	"github.com/ethanolivertroy/antimirror/internal/config"
	"github.com/ethanolivertroy/antimirror/internal/state"
)

// Process exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitConfig      = 2
	exitSearch      = 3
	exitPersistence = 4
)

func exitCode(err error) int {
	var (
		cfgErr    *config.Error
		searchErr *clients.SearchError
		stateErr  *state.PersistenceError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &cfgErr):
		return exitConfig
	case errors.As(err, &searchErr):
		return exitSearch
	case errors.As(err, &stateErr):
		return exitPersistence
	default:
		return exitError
	}
}
