// Package logging provides the zap logger used across vizly-engine and
// helpers to keep credentials out of log output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process logger. Local and test environments get the
// human-readable development encoder; everything else logs structured JSON.
func New(env string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch env {
	case "local", "test":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
