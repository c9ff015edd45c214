package markup

import "strings"

// ApprovalStamp is the block inserted into a plan document when its tasks
// have been synced to the issue tracker.
const ApprovalStamp = "> **Status: Approved**\n> Tasks synced to GitHub"

// approvalMarker is the literal scanned for when checking approval.
const approvalMarker = "**Status: Approved**"

// approvedTag is an alternative hand-written approval annotation.
const approvedTag = "[APPROVED]"

// IsApproved reports whether a plan document already carries the approval
// stamp or an [APPROVED] tag.
func IsApproved(doc string) bool {
	return strings.Contains(doc, approvalMarker) || strings.Contains(doc, approvedTag)
}

// Approve inserts the approval stamp immediately after the document's first
// `#` heading. It is idempotent: approving an already approved document
// returns it unchanged.
func Approve(doc string) string {
	if IsApproved(doc) {
		return doc
	}

	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "#") {
			stamped := make([]string, 0, len(lines)+3)
			stamped = append(stamped, lines[:i+1]...)
			stamped = append(stamped, "", ApprovalStamp)
			stamped = append(stamped, lines[i+1:]...)
			return strings.Join(stamped, "\n")
		}
	}

	// No heading to anchor on; prepend the stamp.
	return ApprovalStamp + "\n\n" + doc
}
