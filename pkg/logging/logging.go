// Package logging builds the engine's zap logger and provides helpers for
// keeping credentials out of log output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New constructs the root logger for the given environment.
// "local" gets a human-readable development logger; everything else gets
// JSON production output. The MCP stdio transport owns stdout, so logs
// always go to stderr.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
