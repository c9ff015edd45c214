package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeworks/foreman/internal/config"
	"github.com/forgeworks/foreman/internal/errors"
	"github.com/forgeworks/foreman/internal/markup"
	"github.com/forgeworks/foreman/internal/tracker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show plan and tracker status",
	Long: `Show the roadmap's milestones and phases with their derived statuses,
plus the open issues carrying the configured label.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg := config.Get()
	logger := newLogger(cfg, root)
	defer func() { _ = logger.Close() }()

	store := newStore(cfg, root, logger, nil)

	milestones := store.Milestones()
	if len(milestones) == 0 {
		fmt.Println("No roadmap found. Run 'foreman init' first.")
		return nil
	}

	for _, m := range milestones {
		fmt.Printf("Milestone: %s [%s]\n", m.Name, m.Status)
	}
	fmt.Println()

	for _, p := range store.Phases() {
		done := 0
		for _, t := range p.Tasks {
			if t.Status == markup.StatusCompleted {
				done++
			}
		}
		fmt.Printf("  Phase %d: %s [%s]  %d/%d tasks done\n",
			p.Number, p.Name, p.Status, done, len(p.Tasks))
	}

	client := tracker.NewClient(logger)
	issues, err := client.ListOpen(cmd.Context(), cfg.Sync.Label)
	switch {
	case errors.Is(err, errors.ErrTrackerUnavailable):
		fmt.Println("\nTracker: unavailable (gh CLI not installed)")
	case errors.Is(err, errors.ErrTrackerAuth):
		fmt.Println("\nTracker: authentication required (run 'gh auth login')")
	case err != nil:
		fmt.Printf("\nTracker: error (%v)\n", err)
	default:
		fmt.Printf("\nOpen issues (label %q): %d\n", cfg.Sync.Label, len(issues))
		for _, issue := range issues {
			fmt.Printf("  #%d %s\n", issue.Number, issue.Title)
		}
	}
	return nil
}
