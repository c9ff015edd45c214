package markup

// DeriveStatus computes a parent status from child statuses: completed iff
// every child is completed (and there is at least one child), in progress
// if any child is in progress, otherwise pending.
func DeriveStatus(children []Status) Status {
	if len(children) == 0 {
		return StatusPending
	}

	allCompleted := true
	for _, s := range children {
		if s == StatusInProgress {
			return StatusInProgress
		}
		if s != StatusCompleted {
			allCompleted = false
		}
	}
	if allCompleted {
		return StatusCompleted
	}
	return StatusPending
}

// DerivePhaseStatus computes a phase's status from its tasks.
func DerivePhaseStatus(tasks []Task) Status {
	statuses := make([]Status, len(tasks))
	for i, t := range tasks {
		statuses[i] = t.Status
	}
	return DeriveStatus(statuses)
}
