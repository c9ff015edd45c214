package markup

import (
	"fmt"
	"strings"
)

// SetTaskStatus rewrites the heading marker of the task with the given
// ordinal, returning the updated document and whether the task was found.
// The owner suffix is written only for in-progress and completed statuses;
// passing an empty owner drops any existing suffix.
func SetTaskStatus(doc string, ordinal int, status Status, owner string) (string, bool) {
	lines := strings.Split(doc, "\n")
	found := false

	for i, line := range lines {
		tok := ScanLine(line)
		if tok.Kind != TokenTaskHeading || tok.Number != ordinal {
			continue
		}

		marker := status.Marker()
		if owner != "" && status != StatusPending {
			marker += "@" + owner
		}
		lines[i] = fmt.Sprintf("### Task %d: %s [%s]", tok.Number, tok.Title, marker)
		found = true
		break
	}

	return strings.Join(lines, "\n"), found
}
