package config

import (
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("Default() failed validation: %v", errs)
	}
	if cfg.Agents.MaxSlots != 3 {
		t.Errorf("MaxSlots = %d, want 3", cfg.Agents.MaxSlots)
	}
	if cfg.Plan.RoadmapFile != "ROADMAP.md" {
		t.Errorf("RoadmapFile = %q, want ROADMAP.md", cfg.Plan.RoadmapFile)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Agents.MaxSlots = 0
	cfg.Agents.Command = ""
	cfg.Sync.IntervalSeconds = 0
	cfg.Logging.Level = "loud"

	errs := cfg.Validate()
	if len(errs) != 4 {
		t.Fatalf("got %d validation errors, want 4: %v", len(errs), errs)
	}

	joined := ValidationErrors(errs).Error()
	for _, want := range []string{"max_slots", "command", "interval_seconds", "logging.level"} {
		if !strings.Contains(joined, want) {
			t.Errorf("validation message missing %q:\n%s", want, joined)
		}
	}
}

func TestSyncInterval(t *testing.T) {
	cfg := Default()
	if got := cfg.Sync.Interval().Seconds(); got != 30 {
		t.Errorf("Interval = %vs, want 30s", got)
	}
}

func TestStateDir(t *testing.T) {
	if got := StateDir("/tmp/proj"); got != "/tmp/proj/.foreman" {
		t.Errorf("StateDir = %q, want /tmp/proj/.foreman", got)
	}
}
