package markup

import (
	"bytes"
	"strings"
	"text/template"
)

// TasksSectionHeading introduces the task list inside a phase plan document.
const TasksSectionHeading = "## Tasks"

// taskBlockTemplate is the fixed template for newly appended tasks. The
// goal line falls back to a placeholder when no description is given, and
// every new task starts with one unchecked acceptance criterion.
var taskBlockTemplate = template.Must(template.New("task").Parse(
	`### Task {{.Ordinal}}: {{.Title}} [ ]

**Goal:** {{.Goal}}

**Acceptance Criteria:**
- [ ] {{.Criterion}}
`))

// defaultGoal is used when a task is created without a description.
const defaultGoal = "TBD"

// defaultCriterion seeds the acceptance criteria list of a new task.
const defaultCriterion = "Define acceptance criteria"

// NextTaskNumber returns the ordinal the next appended task should use:
// one past the highest task number anywhere in the document, or 1 when the
// document has no tasks. The whole document is scanned rather than assuming
// contiguity, because hand-edited documents may have gaps.
func NextTaskNumber(doc string) int {
	max := 0
	for _, tok := range Scan(doc) {
		if tok.Kind == TokenTaskHeading && tok.Number > max {
			max = tok.Number
		}
	}
	return max + 1
}

// AppendTask returns a new document with a task block appended to the
// `## Tasks` section (creating the section if absent), along with the
// descriptor of the created task. The new task is always pending.
func AppendTask(doc string, phase int, title, description string) (string, Task) {
	ordinal := NextTaskNumber(doc)

	goal := strings.TrimSpace(description)
	if goal == "" {
		goal = defaultGoal
	}

	var block bytes.Buffer
	// The template is static; execution over a map cannot fail.
	_ = taskBlockTemplate.Execute(&block, map[string]any{
		"Ordinal":   ordinal,
		"Title":     title,
		"Goal":      goal,
		"Criterion": defaultCriterion,
	})

	out := doc
	if !hasTasksSection(doc) {
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += "\n" + TasksSectionHeading + "\n"
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	out += "\n" + block.String()

	return out, Task{
		ID:            TaskID(phase, ordinal),
		Phase:         phase,
		Ordinal:       ordinal,
		Title:         title,
		Status:        StatusPending,
		CriteriaTotal: 1,
	}
}

func hasTasksSection(doc string) bool {
	for _, line := range strings.Split(doc, "\n") {
		if strings.TrimSpace(line) == TasksSectionHeading {
			return true
		}
	}
	return false
}
