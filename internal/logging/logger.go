// Package logging provides structured logging for Foreman. It wraps
// log/slog with a JSON handler writing to a per-project log file, plus
// child loggers that carry project, slot, and issue context on every entry.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LogFileName is the name of the log file inside the state directory.
const LogFileName = "foreman.log"

// Logger provides structured logging. It is safe for concurrent use.
type Logger struct {
	slog *slog.Logger
	file *os.File
}

// New creates a Logger that writes JSON-formatted entries to
// {stateDir}/foreman.log, creating the directory if needed. When stateDir
// is empty, entries go to stderr.
func New(stateDir, level string) (*Logger, error) {
	var writer io.Writer = os.Stderr
	var file *os.File

	if stateDir != "" {
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(stateDir, LogFileName),
			os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writer = f
		file = f
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	return &Logger{slog: slog.New(handler), file: file}, nil
}

// Nop returns a Logger that discards all output. Useful for tests.
func Nop() *Logger {
	return &Logger{slog: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

// ParseLevel converts a level string to a slog.Level, defaulting to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevels returns the accepted log level strings.
func ValidLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// WithProject returns a child logger carrying the project root on every entry.
func (l *Logger) WithProject(root string) *Logger {
	return l.With("project", root)
}

// WithSlot returns a child logger carrying the agent slot ID on every entry.
func (l *Logger) WithSlot(id int) *Logger {
	return l.With("slot", id)
}

// WithIssue returns a child logger carrying the issue number on every entry.
func (l *Logger) WithIssue(number int) *Logger {
	return l.With("issue", number)
}

// With returns a child logger with arbitrary key-value attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), file: l.file}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Close flushes and closes the log file. No-op for stderr and nop loggers.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	err := l.file.Close()
	l.file = nil
	return err
}
