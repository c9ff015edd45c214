package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeworks/foreman/internal/config"
	"github.com/forgeworks/foreman/internal/plan"
)

var addCmd = &cobra.Command{
	Use:   "add [task title]",
	Short: "Add a task to the active phase",
	Long: `Add a new task to the active phase's plan document.
The active phase is the first roadmap phase marked in progress, or the
first pending phase when none is.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var addDescription string

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "task goal description")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg := config.Get()
	logger := newLogger(cfg, root)
	defer func() { _ = logger.Close() }()

	store := newStore(cfg, root, logger, nil)
	task, err := store.CreateTask(plan.TaskData{Title: args[0], Description: addDescription})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	fmt.Printf("Added task %s\n", task.ID)
	fmt.Printf("Title: %s\n", task.Title)
	fmt.Printf("Phase: %d\n", task.Phase)
	return nil
}
