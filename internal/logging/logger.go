// Package logging builds the zap logger used across Lumina. The terminal is
// owned by the UI, so logs always go to a file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	File   string // empty discards output
}

// New builds a logger writing to opts.File.
func New(opts Options) (*zap.Logger, error) {
	if opts.File == "" {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(orDefault(opts.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{opts.File}
	config.ErrorOutputPaths = []string{opts.File}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Sampling = nil
	if opts.Format == "console" {
		config.Encoding = "console"
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
