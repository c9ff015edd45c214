package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forgeworks/foreman/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Foreman in the current directory",
	Long: `Initialize Foreman in the current directory.
This scaffolds a roadmap, a first phase directory with an empty plan
document, and the .foreman state directory.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const initialRoadmap = `# Roadmap

### Phase 1: Getting started [>]
`

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg := config.Get()

	roadmapPath := filepath.Join(root, cfg.Plan.RoadmapFile)
	if _, err := os.Stat(roadmapPath); err == nil {
		return fmt.Errorf("%s already exists; project is already initialized", cfg.Plan.RoadmapFile)
	}

	if err := os.WriteFile(roadmapPath, []byte(initialRoadmap), 0644); err != nil {
		return fmt.Errorf("failed to write roadmap: %w", err)
	}

	phaseDir := filepath.Join(root, cfg.Plan.PhasesDir, "01-getting-started")
	if err := os.MkdirAll(phaseDir, 0755); err != nil {
		return fmt.Errorf("failed to create phase directory: %w", err)
	}
	planPath := filepath.Join(phaseDir, "01-PLAN.md")
	planDoc := "# Phase 1: Getting started\n\n## Tasks\n"
	if err := os.WriteFile(planPath, []byte(planDoc), 0644); err != nil {
		return fmt.Errorf("failed to write plan document: %w", err)
	}

	if err := os.MkdirAll(config.StateDir(root), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	fmt.Println("Foreman initialized successfully!")
	fmt.Printf("Roadmap: %s\n", roadmapPath)
	fmt.Printf("First plan: %s\n", planPath)
	return nil
}
