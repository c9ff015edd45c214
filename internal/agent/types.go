// Package agent manages a fixed-capacity pool of worker slots, each
// wrapping one external long-running process. Slots capture process
// output, detect completion via a textual sentinel, and report lifecycle
// transitions through a callback and the event bus.
package agent

import "context"

// Sentinel is the literal token a worker prints to standard output to
// signal task completion ahead of process exit.
const Sentinel = "TASK_COMPLETE"

// SlotState represents the lifecycle state of one worker slot.
type SlotState string

const (
	// StateIdle means the slot owns no process and accepts assignment.
	StateIdle SlotState = "idle"

	// StateWorking means the slot owns a running external process.
	StateWorking SlotState = "working"

	// StateDone means the task finished, via sentinel or clean exit.
	StateDone SlotState = "done"

	// StateError means the process exited non-zero or failed to spawn.
	StateError SlotState = "error"
)

// Terminal reports whether the state requires a reset before reassignment.
func (s SlotState) Terminal() bool {
	return s == StateDone || s == StateError
}

// Stream identifies which output stream a chunk came from.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// EventKind discriminates WorkerEvent variants.
type EventKind int

const (
	// EventOutput carries one chunk of process output.
	EventOutput EventKind = iota
	// EventExit reports process termination. It is always the final
	// event on a worker's channel.
	EventExit
)

// WorkerEvent is one observation from a running worker process.
type WorkerEvent struct {
	Kind     EventKind
	Stream   Stream
	Text     string
	ExitCode int
	Err      error
}

// Worker is one spawned external process as seen by the pool. Events
// delivers output chunks in arrival order followed by exactly one exit
// event, after which the channel is closed. Kill terminates the process;
// it is best-effort and safe to call more than once.
type Worker interface {
	Events() <-chan WorkerEvent
	Kill() error
}

// SpawnFunc starts one external worker process with the given
// natural-language instruction. Injected so tests can substitute a fake
// worker for the real command.
type SpawnFunc func(ctx context.Context, instruction string) (Worker, error)

// Assignment describes the work handed to a slot.
type Assignment struct {
	// TaskID is the plan task identifier, "<phase>-<ordinal>".
	TaskID string
	// Title is the task title, used for display and logging.
	Title string
	// Instruction is the payload passed to the worker process.
	Instruction string
	// Ref is an optional external reference (issue number) reported
	// back on completion.
	Ref string
}

// SlotView is a point-in-time snapshot of one slot, safe to retain.
type SlotView struct {
	ID     int       `json:"id"`
	State  SlotState `json:"state"`
	TaskID string    `json:"task_id,omitempty"`
	Title  string    `json:"title,omitempty"`
	Ref    string    `json:"ref,omitempty"`
}
