package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir, "debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.WithProject("/tmp/proj").WithSlot(2).Info("assigned", "ref", "42")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v\n%s", err, line)
	}
	if entry["msg"] != "assigned" {
		t.Errorf("msg = %v, want assigned", entry["msg"])
	}
	if entry["project"] != "/tmp/proj" {
		t.Errorf("project = %v, want /tmp/proj", entry["project"])
	}
	if entry["slot"] != float64(2) {
		t.Errorf("slot = %v, want 2", entry["slot"])
	}
	if entry["ref"] != "42" {
		t.Errorf("ref = %v, want 42", entry["ref"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	logger := Nop()
	logger.WithIssue(7).Debug("quiet")
	if err := logger.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
