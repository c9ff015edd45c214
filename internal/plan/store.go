// Package plan owns the on-disk plan state: the roadmap document and the
// per-phase plan documents under the phases directory. It wraps the markup
// grammar with filesystem access, the NN-<slug> directory convention, and
// a per-document file lock on the write path.
//
// Read paths never fail on missing or unreadable files: they return empty
// results so display consumers are never blocked on partial filesystem
// state. Write paths create missing directories and documents on demand.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/forgeworks/foreman/internal/errors"
	"github.com/forgeworks/foreman/internal/event"
	"github.com/forgeworks/foreman/internal/logging"
	"github.com/forgeworks/foreman/internal/markup"
)

// MaxTitleLength is the longest task title CreateTask accepts.
const MaxTitleLength = 200

// Layout describes where plan documents live relative to the project root.
type Layout struct {
	// PhasesDir holds the NN-<slug> phase directories.
	PhasesDir string
	// RoadmapFile is the roadmap document name.
	RoadmapFile string
}

// DefaultLayout returns the standard document layout.
func DefaultLayout() Layout {
	return Layout{PhasesDir: "phases", RoadmapFile: "ROADMAP.md"}
}

// TaskData is the input to CreateTask.
type TaskData struct {
	Title       string
	Description string
}

// Store provides access to one project's plan documents.
type Store struct {
	root   string
	layout Layout
	logger *logging.Logger
	bus    *event.Bus
}

// NewStore creates a Store for the project rooted at root. The bus may be
// nil when no consumer needs change events.
func NewStore(root string, layout Layout, logger *logging.Logger, bus *event.Bus) *Store {
	if layout.PhasesDir == "" || layout.RoadmapFile == "" {
		layout = DefaultLayout()
	}
	return &Store{root: root, layout: layout, logger: logger, bus: bus}
}

// RoadmapPath returns the absolute path of the roadmap document.
func (s *Store) RoadmapPath() string {
	return filepath.Join(s.root, s.layout.RoadmapFile)
}

// PlanPath returns the plan document path for a phase number, and
// whether a matching phase directory exists.
func (s *Store) PlanPath(phase int) (string, bool) {
	return s.findPlanDocument(phase)
}

// phaseDirRe matches phase directory names like "02-storage".
var phaseDirRe = regexp.MustCompile(`^(\d{2})-`)

// CreateTask appends a new task to the active phase's plan document,
// creating the phase directory and document on demand, and returns the
// created task.
//
// The active phase is the first roadmap phase marked in progress, or the
// first pending phase when none is. Validation failures and a roadmap with
// no assignable phase are returned to the caller; they are the caller's
// errors, not system failures.
func (s *Store) CreateTask(data TaskData) (markup.Task, error) {
	title := strings.TrimSpace(data.Title)
	if title == "" {
		return markup.Task{}, errors.NewValidationError("title cannot be empty").WithField("title")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return markup.Task{}, errors.NewValidationError(
			fmt.Sprintf("title exceeds %d characters", MaxTitleLength)).WithField("title")
	}

	phase, err := s.activePhase()
	if err != nil {
		return markup.Task{}, err
	}

	planPath, err := s.ensurePlanDocument(phase)
	if err != nil {
		return markup.Task{}, err
	}

	lock := NewFileLock(planPath)
	if err := lock.Lock(); err != nil {
		return markup.Task{}, errors.NewPlanError("lock plan document",
			errors.Join(errors.ErrPlanLocked, err)).WithPath(planPath)
	}
	defer func() { _ = lock.Unlock() }()

	doc := ""
	if data, err := os.ReadFile(planPath); err == nil {
		doc = string(data)
	}
	if doc == "" {
		doc = fmt.Sprintf("# Phase %d: %s\n", phase.Number, phase.Name)
	}

	updated, task := markup.AppendTask(doc, phase.Number, title, data.Description)
	if err := os.WriteFile(planPath, []byte(updated), 0644); err != nil {
		return markup.Task{}, errors.NewPlanError("write plan document", err).
			WithPath(planPath).WithPhase(phase.Number)
	}

	s.logger.Info("task created", "task", task.ID, "title", task.Title, "path", planPath)
	if s.bus != nil {
		s.bus.Publish(event.TaskCreated{Task: task})
	}
	return task, nil
}

// Tasks returns every task across all phase plan documents, sorted by
// (phase, ordinal). Missing directories, unreadable files, and a missing
// roadmap all yield an empty result.
func (s *Store) Tasks() []markup.Task {
	var tasks []markup.Task

	entries, err := os.ReadDir(filepath.Join(s.root, s.layout.PhasesDir))
	if err != nil {
		return tasks
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := phaseDirRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		data, err := os.ReadFile(s.planPathIn(entry.Name(), num))
		if err != nil {
			continue
		}
		tasks = append(tasks, markup.ParseTasks(string(data), num)...)
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Phase != tasks[j].Phase {
			return tasks[i].Phase < tasks[j].Phase
		}
		return tasks[i].Ordinal < tasks[j].Ordinal
	})
	return tasks
}

// Phases returns the roadmap phases with their tasks attached. A phase
// with tasks gets its status derived from them; a phase without tasks
// keeps its roadmap marker. A missing roadmap yields an empty result.
func (s *Store) Phases() []markup.Phase {
	data, err := os.ReadFile(s.RoadmapPath())
	if err != nil {
		return nil
	}
	_, phases := markup.ParseRoadmap(string(data))

	byPhase := make(map[int][]markup.Task)
	for _, t := range s.Tasks() {
		byPhase[t.Phase] = append(byPhase[t.Phase], t)
	}

	for i := range phases {
		if tasks, ok := byPhase[phases[i].Number]; ok && len(tasks) > 0 {
			phases[i].Tasks = tasks
			phases[i].Status = markup.DerivePhaseStatus(tasks)
		}
	}
	return phases
}

// Milestones returns the roadmap milestones with statuses derived from
// their member phases (which in turn derive from tasks when present).
func (s *Store) Milestones() []markup.Milestone {
	data, err := os.ReadFile(s.RoadmapPath())
	if err != nil {
		return nil
	}
	milestones, _ := markup.ParseRoadmap(string(data))

	statusByPhase := make(map[int]markup.Status)
	for _, p := range s.Phases() {
		statusByPhase[p.Number] = p.Status
	}

	for i := range milestones {
		var statuses []markup.Status
		for _, n := range milestones[i].PhaseNumbers {
			if st, ok := statusByPhase[n]; ok {
				statuses = append(statuses, st)
			}
		}
		milestones[i].Status = markup.DeriveStatus(statuses)
	}
	return milestones
}

// CompleteTask rewrites the task's heading marker to completed, with an
// optional owner suffix. Returns a NotFoundError when the task or its plan
// document does not exist.
func (s *Store) CompleteTask(taskID, owner string) error {
	phase, ordinal, err := splitTaskID(taskID)
	if err != nil {
		return err
	}

	planPath, ok := s.findPlanDocument(phase)
	if !ok {
		return errors.NewNotFoundError("task", taskID)
	}

	lock := NewFileLock(planPath)
	if err := lock.Lock(); err != nil {
		return errors.NewPlanError("lock plan document",
			errors.Join(errors.ErrPlanLocked, err)).WithPath(planPath)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(planPath)
	if err != nil {
		return errors.NewNotFoundError("task", taskID).WithCause(err)
	}

	updated, found := markup.SetTaskStatus(string(data), ordinal, markup.StatusCompleted, owner)
	if !found {
		return errors.NewNotFoundError("task", taskID)
	}
	if err := os.WriteFile(planPath, []byte(updated), 0644); err != nil {
		return errors.NewPlanError("write plan document", err).WithPath(planPath)
	}

	s.logger.Info("task completed", "task", taskID, "owner", owner)
	return nil
}

// activePhase picks the phase new tasks attach to.
func (s *Store) activePhase() (markup.Phase, error) {
	data, err := os.ReadFile(s.RoadmapPath())
	if err != nil {
		return markup.Phase{}, errors.NewPlanError("no roadmap to place task in",
			errors.Join(errors.ErrRoadmapNotFound, errors.ErrNoActivePhase)).
			WithPath(s.RoadmapPath())
	}

	_, phases := markup.ParseRoadmap(string(data))
	for _, p := range phases {
		if p.Status == markup.StatusInProgress {
			return p, nil
		}
	}
	for _, p := range phases {
		if p.Status == markup.StatusPending {
			return p, nil
		}
	}
	return markup.Phase{}, errors.NewPlanError("every roadmap phase is completed", errors.ErrNoActivePhase).
		WithPath(s.RoadmapPath())
}

// ensurePlanDocument returns the plan document path for a phase, creating
// the phase directory (with a default slug) when no directory matches.
func (s *Store) ensurePlanDocument(phase markup.Phase) (string, error) {
	if path, ok := s.findPlanDocument(phase.Number); ok {
		return path, nil
	}

	dirName := fmt.Sprintf("%02d-phase%d", phase.Number, phase.Number)
	dir := filepath.Join(s.root, s.layout.PhasesDir, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.NewPlanError("create phase directory", err).WithPhase(phase.Number)
	}
	return s.planPathIn(dirName, phase.Number), nil
}

// findPlanDocument locates the plan document for a phase number by
// scanning the phases directory for a matching NN- prefix.
func (s *Store) findPlanDocument(phase int) (string, bool) {
	entries, err := os.ReadDir(filepath.Join(s.root, s.layout.PhasesDir))
	if err != nil {
		return "", false
	}
	prefix := fmt.Sprintf("%02d-", phase)
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			return s.planPathIn(entry.Name(), phase), true
		}
	}
	return "", false
}

// planPathIn builds the plan document path inside a phase directory.
func (s *Store) planPathIn(dirName string, phase int) string {
	return filepath.Join(s.root, s.layout.PhasesDir, dirName, fmt.Sprintf("%02d-PLAN.md", phase))
}

// splitTaskID parses "<phase>-<ordinal>".
func splitTaskID(id string) (phase, ordinal int, err error) {
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		return 0, 0, errors.NewValidationError("malformed task id").WithField("task_id").WithValue(id)
	}
	phase, err = strconv.Atoi(parts[0])
	if err == nil {
		ordinal, err = strconv.Atoi(parts[1])
	}
	if err != nil {
		return 0, 0, errors.NewValidationError("malformed task id").WithField("task_id").WithValue(id)
	}
	return phase, ordinal, nil
}
