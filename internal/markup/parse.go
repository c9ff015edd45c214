package markup

// ParseTasks extracts every task from a phase plan document. The phase
// number is supplied by the caller (it comes from the directory convention,
// not the document) and is used to build task IDs.
//
// Lines that do not match the task heading grammar are skipped silently.
// Acceptance criteria are counted from a task heading up to the next
// heading of equal or higher level.
func ParseTasks(doc string, phase int) []Task {
	var tasks []Task
	var current *Task

	for _, tok := range Scan(doc) {
		switch tok.Kind {
		case TokenTaskHeading:
			if current != nil {
				tasks = append(tasks, *current)
			}
			current = &Task{
				ID:      TaskID(phase, tok.Number),
				Phase:   phase,
				Ordinal: tok.Number,
				Title:   tok.Title,
				Status:  tok.Status,
				Owner:   tok.Owner,
			}

		case TokenCriteriaLine:
			if current != nil {
				current.CriteriaTotal++
				if tok.Done {
					current.CriteriaDone++
				}
			}

		case TokenPhaseHeading, TokenMilestoneHeading:
			// Headings at task level or above end the criteria body.
			if current != nil {
				tasks = append(tasks, *current)
				current = nil
			}

		case TokenHeading:
			if current != nil && tok.Level <= 3 {
				tasks = append(tasks, *current)
				current = nil
			}
		}
	}

	if current != nil {
		tasks = append(tasks, *current)
	}
	return tasks
}

// ParseRoadmap extracts milestones and phases from a roadmap document.
// Phases carry the raw heading marker as their status (they have no task
// bodies in the roadmap); milestones get their status re-derived from
// member phases, overriding any explicit heading marker.
//
// A roadmap with phase headings but no milestone headings yields a single
// implicit milestone named "Current" containing every phase.
func ParseRoadmap(doc string) ([]Milestone, []Phase) {
	var milestones []Milestone
	var phases []Phase
	var current *Milestone

	for _, tok := range Scan(doc) {
		switch tok.Kind {
		case TokenMilestoneHeading:
			if current != nil {
				milestones = append(milestones, *current)
			}
			current = &Milestone{Name: tok.Title, Status: tok.Status}

		case TokenPhaseHeading:
			phases = append(phases, Phase{
				Number: tok.Number,
				Name:   tok.Title,
				Status: tok.Status,
			})
			if current != nil {
				current.PhaseNumbers = append(current.PhaseNumbers, tok.Number)
			}
		}
	}
	if current != nil {
		milestones = append(milestones, *current)
	}

	if len(milestones) == 0 && len(phases) > 0 {
		implicit := Milestone{Name: ImplicitMilestoneName}
		for _, p := range phases {
			implicit.PhaseNumbers = append(implicit.PhaseNumbers, p.Number)
		}
		milestones = append(milestones, implicit)
	}

	// Normalize milestone statuses from member phase markers.
	byNumber := make(map[int]Status, len(phases))
	for _, p := range phases {
		byNumber[p.Number] = p.Status
	}
	for i := range milestones {
		var statuses []Status
		for _, n := range milestones[i].PhaseNumbers {
			if s, ok := byNumber[n]; ok {
				statuses = append(statuses, s)
			}
		}
		milestones[i].Status = DeriveStatus(statuses)
	}

	return milestones, phases
}
