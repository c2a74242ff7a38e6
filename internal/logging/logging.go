// Package logging builds the zap loggers used by the pendulab commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a logger writing to stderr at level. Development mode
// switches to the console encoder with caller and stack traces.
func New(level string, development bool) (*zap.Logger, error) {
	return build(level, development, []string{"stderr"})
}

// NewFile is New writing to path instead of stderr. The TUI owns the
// terminal, so it logs here.
func NewFile(level string, development bool, path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	return build(level, development, []string{path})
}

func build(level string, development bool, outputs []string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.OutputPaths = outputs
	cfg.ErrorOutputPaths = outputs
	return cfg.Build()
}
