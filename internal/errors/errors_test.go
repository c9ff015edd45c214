package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("title cannot be empty").WithField("title").WithValue("")

	if !Is(err, ErrInvalidInput) {
		t.Error("Is(err, ErrInvalidInput) = false, want true")
	}
	if !IsUserFacing(err) {
		t.Error("IsUserFacing = false, want true")
	}
	if IsRetryable(err) {
		t.Error("IsRetryable = true, want false")
	}
	if got := GetSeverity(err); got != SeverityWarning {
		t.Errorf("GetSeverity = %s, want warning", got)
	}
	if !strings.Contains(err.Error(), "field=title") {
		t.Errorf("Error() = %q, missing field context", err.Error())
	}
}

func TestPlanErrorWrapsSentinel(t *testing.T) {
	err := NewPlanError("cannot place task", ErrNoActivePhase).WithPath("ROADMAP.md")

	if !Is(err, ErrNoActivePhase) {
		t.Error("Is(err, ErrNoActivePhase) = false, want true")
	}
	if !strings.Contains(err.Error(), "path=ROADMAP.md") {
		t.Errorf("Error() = %q, missing path context", err.Error())
	}

	var planErr *PlanError
	if !As(err, &planErr) {
		t.Fatal("As(*PlanError) = false, want true")
	}
}

func TestPlanErrorThroughWrapping(t *testing.T) {
	inner := NewPlanError("write failed", nil).WithPhase(2)
	wrapped := fmt.Errorf("create task: %w", inner)

	var planErr *PlanError
	if !As(wrapped, &planErr) {
		t.Fatal("As through fmt.Errorf wrapping failed")
	}
	if planErr.Phase != 2 {
		t.Errorf("Phase = %d, want 2", planErr.Phase)
	}
}

func TestAgentError(t *testing.T) {
	err := NewAgentError("assignment rejected", ErrSlotBusy).WithSlot(2).WithRef("42")

	if !Is(err, ErrSlotBusy) {
		t.Error("Is(err, ErrSlotBusy) = false, want true")
	}
	msg := err.Error()
	if !strings.Contains(msg, "slot=2") || !strings.Contains(msg, "ref=42") {
		t.Errorf("Error() = %q, missing context", msg)
	}
}

func TestTrackerErrorRetryable(t *testing.T) {
	err := NewTrackerError("list failed", ErrTrackerUnavailable).
		WithOperation("list").
		WithOutput("gh: command not found")

	if !IsRetryable(err) {
		t.Error("IsRetryable = false, want true")
	}
	if !Is(err, ErrTrackerUnavailable) {
		t.Error("Is(err, ErrTrackerUnavailable) = false, want true")
	}
	if !strings.Contains(err.Error(), "tracker output:") {
		t.Errorf("Error() = %q, missing output", err.Error())
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("phase", "7")
	want := "phase '7' not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsUserFacing(err) {
		t.Error("IsUserFacing = false, want true")
	}
}

func TestClassifiersOnNil(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true, want false")
	}
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true, want false")
	}
	if got := GetSeverity(nil); got != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %s, want debug", got)
	}
}

func TestGetSeverityPlainError(t *testing.T) {
	if got := GetSeverity(New("boom")); got != SeverityError {
		t.Errorf("GetSeverity = %s, want error", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) != nil")
	}
	err := Wrapf(ErrSlotBusy, "assign slot %d", 1)
	if !Is(err, ErrSlotBusy) {
		t.Error("wrapped error lost sentinel")
	}
	if !strings.Contains(err.Error(), "assign slot 1") {
		t.Errorf("Error() = %q, missing context", err.Error())
	}
}
