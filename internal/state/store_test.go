package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("file by default", func(t *testing.T) {
		store, err := Open(ctx, models.StateConfig{File: filepath.Join(dir, "s.json")}, zerolog.Nop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &FileStore{}, store)
	})

	t.Run("sqlite url", func(t *testing.T) {
		store, err := Open(ctx, models.StateConfig{URL: "sqlite://" + filepath.Join(dir, "s.db")}, zerolog.Nop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &SQLiteStore{}, store)
	})

	t.Run("s3 url", func(t *testing.T) {
		store, err := Open(ctx, models.StateConfig{URL: "s3://bucket/antimirror/state", S3Endpoint: "localhost:9000"}, zerolog.Nop())
		require.NoError(t, err)
		s3, ok := store.(*S3Store)
		require.True(t, ok)
		assert.Equal(t, "antimirror/state/monitor_forks.json", s3.ObjectKey("monitor:forks"))
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := Open(ctx, models.StateConfig{URL: "redis://localhost"}, zerolog.Nop())
		var perr *PersistenceError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "open", perr.Op)
	})
}
