package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgeworks/foreman/internal/agent"
	"github.com/forgeworks/foreman/internal/bridge"
	"github.com/forgeworks/foreman/internal/config"
	"github.com/forgeworks/foreman/internal/event"
	"github.com/forgeworks/foreman/internal/markup"
	"github.com/forgeworks/foreman/internal/plan"
	"github.com/forgeworks/foreman/internal/tracker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the orchestrator",
	Long: `Run the Foreman orchestrator: open tracker issues are handed to idle
agent slots, worker output is captured, and completions close issues and
stamp the plan. Stops on SIGINT/SIGTERM.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg, root)
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := event.NewBus()
	store := newStore(cfg, root, logger, bus)

	watcher, err := plan.NewWatcher(store, bus, logger)
	if err != nil {
		logger.Warn("plan watcher unavailable", "error", err)
	} else {
		go watcher.Run(ctx)
	}

	spawn := agent.NewCommandSpawner(cfg.Agents.Command, cfg.Agents.Args)
	pool := agent.NewPool(cfg.Agents.MaxSlots, cfg.Agents.OutputBufferChunks, spawn, logger, bus)

	client := tracker.NewClient(logger)
	sync := bridge.New(client, pool, store, cfg.Sync, logger, bus)
	pool.OnComplete(sync.HandleCompletion)

	go sync.Run(ctx)

	fmt.Printf("Foreman running: %d slots, refreshing issues every %s\n",
		pool.Size(), cfg.Sync.Interval())
	logger.Info("orchestrator started", "slots", pool.Size(), "interval", cfg.Sync.Interval())

	dispatch(ctx, sync, pool, store, cfg)

	fmt.Println("Shutting down...")
	pool.StopAll()
	logger.Info("orchestrator stopped")
	return nil
}

// dispatch hands open issues to idle slots until the context is canceled.
// Issues already pending or labeled in-progress are skipped; an issue
// whose title matches a pending plan task carries that task's id so
// completion stamps the plan.
func dispatch(ctx context.Context, sync *bridge.Synchronizer, pool *agent.Pool, store *plan.Store, cfg *config.Config) {
	ticker := time.NewTicker(cfg.Sync.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pending := make(map[int]bool)
		for _, number := range sync.Pending() {
			pending[number] = true
		}

		for _, issue := range sync.Issues() {
			if pending[issue.Number] || issue.HasLabel(cfg.Sync.InProgressLabel) {
				continue
			}
			if _, ok := pool.Idle(); !ok {
				break
			}
			taskID := matchPlanTask(store.Tasks(), issue.Title)
			if err := sync.AssignIssue(ctx, issue, taskID); err != nil {
				continue
			}
			pending[issue.Number] = true
		}
	}
}

// matchPlanTask returns the id of the first pending plan task whose title
// equals the issue title, or empty when no plan counterpart exists.
func matchPlanTask(tasks []markup.Task, title string) string {
	for _, t := range tasks {
		if t.Status == markup.StatusPending && t.Title == title {
			return t.ID
		}
	}
	return ""
}
