// Package logger builds the zerolog logger shared by every command.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a logger writing to stderr and, when cfg.File is set, to a
// rotating log file.
func New(cfg models.LogConfig) (zerolog.Logger, error) {
	return build(cfg, os.Stderr)
}

func build(cfg models.LogConfig, console io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	writers := []io.Writer{consoleWriter(cfg.Format, console)}
	if cfg.File != "" {
		w, err := fileWriter(cfg)
		if err != nil {
			return zerolog.Nop(), err
		}
		writers = append(writers, w)
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func consoleWriter(format string, out io.Writer) io.Writer {
	if format == "json" {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
}

func fileWriter(cfg models.LogConfig) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}

	// no ANSI colors in files
	if cfg.Format == "console" {
		return zerolog.ConsoleWriter{Out: rotating, NoColor: true, TimeFormat: time.RFC3339}, nil
	}
	return rotating, nil
}
