package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/forgeworks/foreman/internal/config"
	"github.com/forgeworks/foreman/internal/plan"
)

var approveCmd = &cobra.Command{
	Use:   "approve [phase number]",
	Short: "Stamp a phase's plan document as approved",
	Long: `Stamp the plan document of the given phase with the approval block.
Stamping is idempotent; approving an already-approved plan changes nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

func init() {
	rootCmd.AddCommand(approveCmd)
}

func runApprove(cmd *cobra.Command, args []string) error {
	phase, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid phase number %q", args[0])
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg := config.Get()
	logger := newLogger(cfg, root)
	defer func() { _ = logger.Close() }()

	store := newStore(cfg, root, logger, nil)
	planPath, ok := store.PlanPath(phase)
	if !ok {
		return fmt.Errorf("no plan document for phase %d", phase)
	}

	if plan.IsApproved(planPath) {
		fmt.Printf("Phase %d plan is already approved.\n", phase)
		return nil
	}
	if err := plan.ApprovePlan(planPath); err != nil {
		return fmt.Errorf("failed to approve plan: %w", err)
	}

	fmt.Printf("Approved phase %d plan: %s\n", phase, planPath)
	return nil
}
