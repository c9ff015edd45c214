package config

import (
	"fmt"
	"strings"

	"github.com/forgeworks/foreman/internal/logging"
)

// ValidationErrors aggregates configuration validation failures into a
// single error.
type ValidationErrors []error

// Error returns all validation failures joined on newlines.
func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, err := range v {
		msgs[i] = err.Error()
	}
	return "invalid configuration:\n  " + strings.Join(msgs, "\n  ")
}

// Validate checks the configuration for invalid values and returns one
// error per problem found.
func (c *Config) Validate() []error {
	var errs []error

	if c.Agents.MaxSlots < 1 {
		errs = append(errs, fmt.Errorf("agents.max_slots must be at least 1, got %d", c.Agents.MaxSlots))
	}
	if c.Agents.Command == "" {
		errs = append(errs, fmt.Errorf("agents.command cannot be empty"))
	}
	if c.Agents.OutputBufferChunks < 1 {
		errs = append(errs, fmt.Errorf("agents.output_buffer_chunks must be at least 1, got %d", c.Agents.OutputBufferChunks))
	}

	if c.Sync.IntervalSeconds < 1 {
		errs = append(errs, fmt.Errorf("sync.interval_seconds must be at least 1, got %d", c.Sync.IntervalSeconds))
	}

	if c.Plan.PhasesDir == "" {
		errs = append(errs, fmt.Errorf("plan.phases_dir cannot be empty"))
	}
	if c.Plan.RoadmapFile == "" {
		errs = append(errs, fmt.Errorf("plan.roadmap_file cannot be empty"))
	}

	if !validLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of %s, got %q",
			strings.Join(logging.ValidLevels(), ", "), c.Logging.Level))
	}

	return errs
}

func validLevel(level string) bool {
	for _, valid := range logging.ValidLevels() {
		if strings.EqualFold(level, valid) {
			return true
		}
	}
	return false
}
