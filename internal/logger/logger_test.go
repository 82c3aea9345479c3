package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	_, err := New(models.DefaultConfig().Log)
	require.NoError(t, err)
}

func TestBuild_InvalidLevel(t *testing.T) {
	_, err := build(models.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestBuild_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := build(models.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("repo", "a/b").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "a/b", entry["repo"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestBuild_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "antimirror.log")
	log, err := build(models.LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1}, &bytes.Buffer{})
	require.NoError(t, err)

	log.Info().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
