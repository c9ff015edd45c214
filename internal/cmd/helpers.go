package cmd

import (
	"fmt"
	"os"

	"github.com/forgeworks/foreman/internal/config"
	"github.com/forgeworks/foreman/internal/event"
	"github.com/forgeworks/foreman/internal/logging"
	"github.com/forgeworks/foreman/internal/plan"
)

// projectRoot returns the directory Foreman operates on.
func projectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

// newLogger builds the project logger from config. Logging failures fall
// back to a no-op logger rather than blocking the command.
func newLogger(cfg *config.Config, root string) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.Nop()
	}
	logger, err := logging.New(config.StateDir(root), cfg.Logging.Level)
	if err != nil {
		return logging.Nop()
	}
	return logger
}

// newStore builds the plan store for the project root.
func newStore(cfg *config.Config, root string, logger *logging.Logger, bus *event.Bus) *plan.Store {
	layout := plan.Layout{
		PhasesDir:   cfg.Plan.PhasesDir,
		RoadmapFile: cfg.Plan.RoadmapFile,
	}
	return plan.NewStore(root, layout, logger, bus)
}
