// Package state persists the seen-set between runs.
//
// A record is addressed by a key and holds a set of strings. Backends only
// ever add to a record; nothing here removes keys.
package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/rs/zerolog"
)

// Store loads and saves seen-sets
type Store interface {
	// Load returns the set stored under key, or an empty set if there is none
	Load(ctx context.Context, key string) (models.SeenSet, error)
	// Save persists set under key
	Save(ctx context.Context, key string, set models.SeenSet) error
	Close() error
}

// PersistenceError is returned when a record cannot be read or written.
// Runs stop on it rather than risk reporting the same findings again.
type PersistenceError struct {
	Op      string // "open", "load" or "save"
	Backend string
	Key     string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("state %s (%s): %v", e.Op, e.Backend, e.Err)
	}
	return fmt.Sprintf("state %s %q (%s): %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Open picks a backend from cfg.URL. An empty URL means the JSON file at
// cfg.File.
func Open(ctx context.Context, cfg models.StateConfig, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("module", "state").Logger()

	scheme, rest, _ := strings.Cut(cfg.URL, "://")
	switch scheme {
	case "":
		logger.Debug().Str("path", cfg.File).Msg("Using file state store")
		return NewFileStore(cfg.File), nil
	case "sqlite":
		logger.Debug().Str("path", rest).Msg("Using sqlite state store")
		return NewSQLiteStore(ctx, rest)
	case "postgres", "postgresql":
		logger.Debug().Msg("Using postgres state store")
		return NewPostgresStore(ctx, cfg.URL)
	case "s3":
		bucket, prefix, _ := strings.Cut(rest, "/")
		logger.Debug().Str("endpoint", cfg.S3Endpoint).Str("bucket", bucket).Msg("Using s3 state store")
		return NewS3Store(cfg, bucket, prefix)
	default:
		return nil, &PersistenceError{Op: "open", Backend: scheme, Err: fmt.Errorf("unsupported state url %q", cfg.URL)}
	}
}
