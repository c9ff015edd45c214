// Package bridge coordinates the plan store, the agent pool, and the
// issue tracker: open issues become candidate tasks, assignments mark
// issues in-progress, and agent completions close issues and stamp the
// plan. Tracker unavailability degrades the bridge to an explicit error
// state; it never crashes the system.
package bridge

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/forgeworks/foreman/internal/agent"
	"github.com/forgeworks/foreman/internal/config"
	"github.com/forgeworks/foreman/internal/errors"
	"github.com/forgeworks/foreman/internal/event"
	"github.com/forgeworks/foreman/internal/logging"
	"github.com/forgeworks/foreman/internal/tracker"
)

// State describes the bridge's view of the tracker connection.
type State string

const (
	// StateOK means the last refresh succeeded.
	StateOK State = "ok"
	// StateDegraded means the labeled query failed but the unfiltered
	// fallback succeeded.
	StateDegraded State = "degraded"
	// StateError means the tracker could not be reached at all.
	StateError State = "error"
)

// TrackerClient is the tracker surface the bridge needs.
type TrackerClient interface {
	ListOpen(ctx context.Context, label string) ([]tracker.Issue, error)
	Close(ctx context.Context, number int, comment string) error
	MarkInProgress(ctx context.Context, number int, label string) error
}

// AgentPool is the pool surface the bridge needs.
type AgentPool interface {
	Assign(ctx context.Context, slotID int, a agent.Assignment) error
	Idle() (int, bool)
}

// PlanStore is the plan surface the bridge needs.
type PlanStore interface {
	CompleteTask(taskID, owner string) error
}

// pendingTask tracks one issue handed to an agent, keyed by issue number.
type pendingTask struct {
	TaskID string
	SlotID int
}

// Synchronizer bridges the tracker, the pool, and the plan store.
type Synchronizer struct {
	tracker TrackerClient
	pool    AgentPool
	store   PlanStore
	cfg     config.SyncConfig
	logger  *logging.Logger
	bus     *event.Bus

	mu      sync.Mutex
	pending map[int]pendingTask
	issues  []tracker.Issue
	state   State
	message string
}

// New creates a Synchronizer. Wire the pool's completion callback to
// HandleCompletion before assigning work. The bus may be nil.
func New(tc TrackerClient, pool AgentPool, store PlanStore, cfg config.SyncConfig, logger *logging.Logger, bus *event.Bus) *Synchronizer {
	return &Synchronizer{
		tracker: tc,
		pool:    pool,
		store:   store,
		cfg:     cfg,
		logger:  logger,
		bus:     bus,
		pending: make(map[int]pendingTask),
		state:   StateOK,
	}
}

// Refresh re-fetches open issues from the tracker. The labeled query is
// tried first; on failure one unfiltered fallback is attempted before the
// bridge reports an error state. The previous issue snapshot is retained
// on total failure so displays do not go blank.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	issues, err := s.tracker.ListOpen(ctx, s.cfg.Label)
	if err == nil {
		s.setIssues(issues, StateOK, "")
		return nil
	}

	s.logger.Warn("labeled issue query failed, retrying unfiltered",
		"label", s.cfg.Label, "error", err)

	issues, fallbackErr := s.tracker.ListOpen(ctx, "")
	if fallbackErr == nil {
		s.setIssues(issues, StateDegraded, "label filter dropped: "+err.Error())
		return nil
	}

	s.setState(StateError, fallbackErr.Error())
	return errors.Wrap(fallbackErr, "refresh issues")
}

// AssignIssue hands an open issue to an idle agent slot: the issue is
// marked in-progress in the tracker, recorded as pending, and the slot
// spawns a worker with the issue body as its instruction. taskID is the
// plan task stamped completed when the agent finishes; it may be empty
// for issues with no plan counterpart.
func (s *Synchronizer) AssignIssue(ctx context.Context, issue tracker.Issue, taskID string) error {
	slotID, ok := s.pool.Idle()
	if !ok {
		return errors.NewAgentError("no idle slot for issue", errors.ErrSlotBusy).
			WithRef(strconv.Itoa(issue.Number))
	}

	if err := s.tracker.MarkInProgress(ctx, issue.Number, s.cfg.InProgressLabel); err != nil {
		// The agent can still work the issue; the label is cosmetic.
		s.logger.Warn("could not mark issue in progress", "issue", issue.Number, "error", err)
	}

	s.mu.Lock()
	s.pending[issue.Number] = pendingTask{TaskID: taskID, SlotID: slotID}
	s.mu.Unlock()

	instruction := issue.Title
	if issue.Body != "" {
		instruction += "\n\n" + issue.Body
	}

	err := s.pool.Assign(ctx, slotID, agent.Assignment{
		TaskID:      taskID,
		Title:       issue.Title,
		Instruction: instruction,
		Ref:         strconv.Itoa(issue.Number),
	})
	if err != nil {
		s.mu.Lock()
		delete(s.pending, issue.Number)
		s.mu.Unlock()
		return err
	}

	s.logger.Info("issue assigned", "issue", issue.Number, "slot", slotID, "task", taskID)
	s.publish()
	return nil
}

// HandleCompletion reacts to an agent finishing: the corresponding issue
// is closed with the completion comment, the pending entry is removed,
// and the plan task (when known) is stamped completed. Intended as the
// pool's completion callback.
func (s *Synchronizer) HandleCompletion(slotID int, ref string) {
	number, err := strconv.Atoi(ref)
	if err != nil {
		// Work assigned outside the bridge carries no issue number.
		return
	}

	s.mu.Lock()
	entry, ok := s.pending[number]
	if ok {
		delete(s.pending, number)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx := context.Background()
	if err := s.tracker.Close(ctx, number, s.cfg.CompletionComment); err != nil {
		s.logger.Warn("could not close issue", "issue", number, "error", err)
	}

	if entry.TaskID != "" {
		if err := s.store.CompleteTask(entry.TaskID, ""); err != nil {
			s.logger.Warn("could not stamp plan task", "task", entry.TaskID, "error", err)
		}
	}

	s.logger.Info("issue completed", "issue", number, "slot", slotID, "task", entry.TaskID)
	s.publish()
}

// Run refreshes the issue list on the configured interval until the
// context is canceled. One refresh happens immediately.
func (s *Synchronizer) Run(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("initial issue refresh failed", "error", err)
	}

	ticker := time.NewTicker(s.cfg.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("issue refresh failed", "error", err)
			}
		}
	}
}

// Issues returns the last fetched open issues.
func (s *Synchronizer) Issues() []tracker.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tracker.Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// Pending returns the issue numbers currently handed to agents.
func (s *Synchronizer) Pending() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.pending))
	for number := range s.pending {
		out = append(out, number)
	}
	return out
}

// Status returns the bridge state and, for degraded/error states, a
// human-readable message.
func (s *Synchronizer) Status() (State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.message
}

func (s *Synchronizer) setIssues(issues []tracker.Issue, state State, message string) {
	s.mu.Lock()
	s.issues = issues
	s.state = state
	s.message = message
	s.mu.Unlock()
	s.publish()
}

func (s *Synchronizer) setState(state State, message string) {
	s.mu.Lock()
	s.state = state
	s.message = message
	s.mu.Unlock()
	s.publish()
}

func (s *Synchronizer) publish() {
	if s.bus == nil {
		return
	}
	state, message := s.Status()
	s.bus.Publish(event.SyncChanged{State: string(state), Message: message})
}
