// Package markup implements the line-oriented plan markup grammar used by
// Foreman plan documents: roadmap milestone/phase headings, task headings
// with status markers, and acceptance-criteria checkboxes.
//
// All functions in this package are pure and stateless. Malformed lines are
// skipped, never reported as errors, so hand-edited documents degrade to
// partial results instead of aborting a scan.
package markup

import "fmt"

// Status represents the lifecycle state of a task, phase, or milestone.
type Status string

const (
	// StatusPending indicates work that has not started.
	StatusPending Status = "pending"

	// StatusInProgress indicates work that is actively underway.
	StatusInProgress Status = "in_progress"

	// StatusCompleted indicates finished work.
	StatusCompleted Status = "completed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Marker returns the single-character status marker used in headings:
// 'x' for completed, '>' for in progress, ' ' for pending.
func (s Status) Marker() string {
	switch s {
	case StatusCompleted:
		return "x"
	case StatusInProgress:
		return ">"
	default:
		return " "
	}
}

// statusFromMarker maps a heading marker character to a Status.
// Unknown markers are treated as pending.
func statusFromMarker(marker string) Status {
	switch marker {
	case "x":
		return StatusCompleted
	case ">":
		return StatusInProgress
	default:
		return StatusPending
	}
}

// Task is one unit of plannable work inside a phase plan document.
// Identity is (Phase, Ordinal); ordinals are assigned sequentially per
// phase and never reused.
type Task struct {
	// ID is "<phase>-<ordinal>", e.g. "2-5".
	ID string `json:"id"`

	// Phase is the phase number the task belongs to.
	Phase int `json:"phase"`

	// Ordinal is the task number within the phase, starting at 1.
	Ordinal int `json:"ordinal"`

	// Title is the task heading title.
	Title string `json:"title"`

	// Status is the task's lifecycle state.
	Status Status `json:"status"`

	// Owner is the user handle claimed on the heading marker, if any.
	// Only meaningful for in-progress and completed tasks.
	Owner string `json:"owner,omitempty"`

	// CriteriaDone is the number of checked acceptance criteria.
	CriteriaDone int `json:"criteria_done"`

	// CriteriaTotal is the total number of acceptance criteria.
	CriteriaTotal int `json:"criteria_total"`
}

// TaskID builds the canonical "<phase>-<ordinal>" identifier.
func TaskID(phase, ordinal int) string {
	return fmt.Sprintf("%d-%d", phase, ordinal)
}

// Phase is an ordered group of tasks backed by one plan document.
type Phase struct {
	// Number is the phase number from the heading.
	Number int `json:"number"`

	// Name is the phase name from the heading.
	Name string `json:"name"`

	// Status is the phase status. When tasks are present it is derived
	// from them; otherwise it reflects the roadmap heading marker.
	Status Status `json:"status"`

	// Tasks are the phase's tasks in document order.
	Tasks []Task `json:"tasks,omitempty"`
}

// Milestone is an optional grouping layer over phases, parsed from the
// roadmap document.
type Milestone struct {
	// Name is the milestone name from the heading.
	Name string `json:"name"`

	// Status is derived from the statuses of the member phases.
	Status Status `json:"status"`

	// PhaseNumbers lists member phases in document order.
	PhaseNumbers []int `json:"phase_numbers"`
}

// ImplicitMilestoneName is the name given to the single milestone that is
// synthesized when a roadmap has phase headings but no milestone headings.
const ImplicitMilestoneName = "Current"
