// Package logging builds the zap loggers used across atsform.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/atsform/internal/config"
)

// New builds a logger from cfg. When cfg.File resolves to a path, output goes
// there instead of stderr so the terminal UI is not overwritten.
func New(cfg config.LogConfig, path string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
	}
	return zc.Build()
}

// Must is New for callers that fall back to a no-op logger on error.
func Must(cfg config.LogConfig, path string) *zap.Logger {
	l, err := New(cfg, path)
	if err != nil {
		return zap.NewNop()
	}
	return l
}
