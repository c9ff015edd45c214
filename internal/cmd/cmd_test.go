package cmd

import (
	"testing"

	"github.com/forgeworks/foreman/internal/markup"
)

func TestMatchPlanTask(t *testing.T) {
	tasks := []markup.Task{
		{ID: "1-1", Title: "Fix parser", Status: markup.StatusCompleted},
		{ID: "1-2", Title: "Fix parser", Status: markup.StatusPending},
		{ID: "2-1", Title: "Add docs", Status: markup.StatusInProgress},
	}

	if got := matchPlanTask(tasks, "Fix parser"); got != "1-2" {
		t.Errorf("matchPlanTask(Fix parser) = %q, want 1-2 (first pending match)", got)
	}
	if got := matchPlanTask(tasks, "Add docs"); got != "" {
		t.Errorf("matchPlanTask(Add docs) = %q, want empty (not pending)", got)
	}
	if got := matchPlanTask(tasks, "Unknown"); got != "" {
		t.Errorf("matchPlanTask(Unknown) = %q, want empty", got)
	}
}

func TestOwnerSuffix(t *testing.T) {
	if got := ownerSuffix(markup.Task{}); got != "" {
		t.Errorf("ownerSuffix without owner = %q, want empty", got)
	}
	if got := ownerSuffix(markup.Task{Owner: "alice"}); got != " @alice" {
		t.Errorf("ownerSuffix = %q, want \" @alice\"", got)
	}
}
