package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeworks/foreman/internal/config"
	"github.com/forgeworks/foreman/internal/markup"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List all plan tasks",
	Long:  `List every task across all phase plan documents, grouped by phase.`,
	RunE:  runTasks,
}

var tasksPhase int

func init() {
	tasksCmd.Flags().IntVarP(&tasksPhase, "phase", "p", 0, "only show tasks for this phase")
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg := config.Get()
	logger := newLogger(cfg, root)
	defer func() { _ = logger.Close() }()

	store := newStore(cfg, root, logger, nil)
	tasks := store.Tasks()
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	lastPhase := -1
	for _, t := range tasks {
		if tasksPhase > 0 && t.Phase != tasksPhase {
			continue
		}
		if t.Phase != lastPhase {
			fmt.Printf("Phase %d:\n", t.Phase)
			lastPhase = t.Phase
		}
		fmt.Printf("  [%s] %s: %s%s  (%d/%d criteria)\n",
			t.Status.Marker(), t.ID, t.Title, ownerSuffix(t), t.CriteriaDone, t.CriteriaTotal)
	}
	return nil
}

func ownerSuffix(t markup.Task) string {
	if t.Owner == "" {
		return ""
	}
	return " @" + t.Owner
}
