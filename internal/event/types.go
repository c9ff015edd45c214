package event

import "github.com/forgeworks/foreman/internal/markup"

// Event is anything that can be published on the bus.
type Event interface {
	// EventType returns the type string handlers subscribe to.
	EventType() string
}

// Event type strings.
const (
	TypeTaskCreated   = "plan.task_created"
	TypePlanChanged   = "plan.changed"
	TypeSlotChanged   = "agent.slot_changed"
	TypeTaskCompleted = "agent.task_completed"
	TypeSyncChanged   = "sync.state_changed"
)

// TaskCreated is published when a task is appended to a plan document.
type TaskCreated struct {
	Task markup.Task
}

// EventType implements Event.
func (TaskCreated) EventType() string { return TypeTaskCreated }

// PlanChanged is published when a plan or roadmap document changes on disk.
type PlanChanged struct {
	Path string
}

// EventType implements Event.
func (PlanChanged) EventType() string { return TypePlanChanged }

// SlotChanged is published when an agent slot changes state.
type SlotChanged struct {
	SlotID int
	State  string
	Ref    string
}

// EventType implements Event.
func (SlotChanged) EventType() string { return TypeSlotChanged }

// TaskCompleted is published when an agent slot finishes its task, either
// via the completion sentinel or a clean process exit.
type TaskCompleted struct {
	SlotID int
	Ref    string
}

// EventType implements Event.
func (TaskCompleted) EventType() string { return TypeTaskCompleted }

// SyncChanged is published when the issue synchronizer's state changes.
type SyncChanged struct {
	State   string
	Message string
}

// EventType implements Event.
func (SyncChanged) EventType() string { return TypeSyncChanged }
