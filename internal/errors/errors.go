// Package errors provides centralized error definitions for Foreman:
// sentinel errors, domain errors with contextual builders, semantic errors
// for common conditions, and classification helpers.
//
// Validation and not-found conditions are deliberately low severity: read
// paths treat missing files as empty results, and validation failures are
// reported to the caller of the failing operation, never logged as system
// failures.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions so callers can import only this
// package for error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Plan-related sentinel errors.
var (
	// ErrNoActivePhase indicates the roadmap has no in-progress or
	// pending phase to attach new tasks to.
	ErrNoActivePhase = New("no active phase in roadmap")
	// ErrRoadmapNotFound indicates the roadmap document is missing.
	ErrRoadmapNotFound = New("roadmap not found")
	// ErrPlanLocked indicates a plan document is locked by another writer.
	ErrPlanLocked = New("plan document is locked")
)

// Agent-related sentinel errors.
var (
	// ErrSlotNotFound indicates a slot ID outside the pool's range.
	ErrSlotNotFound = New("slot not found")
	// ErrSlotBusy indicates an assignment to a slot that is working.
	ErrSlotBusy = New("slot is busy")
	// ErrSpawnFailed indicates the worker process could not be started.
	ErrSpawnFailed = New("worker failed to start")
)

// Tracker-related sentinel errors.
var (
	// ErrTrackerUnavailable indicates the tracker CLI is not installed
	// or not reachable.
	ErrTrackerUnavailable = New("issue tracker unavailable")
	// ErrTrackerAuth indicates the tracker CLI requires authentication.
	ErrTrackerAuth = New("issue tracker authentication required")
	// ErrIssueNotFound indicates the requested issue does not exist.
	ErrIssueNotFound = New("issue not found")
)

// General sentinel errors.
var (
	// ErrInvalidInput indicates input validation failed.
	ErrInvalidInput = New("invalid input")
)

// ForemanError extends error with classification methods.
type ForemanError interface {
	error

	Unwrap() error
	Is(target error) bool
	Severity() Severity
	IsRetryable() bool
	IsUserFacing() bool
}

// baseError provides common behavior for all error types in this package.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) IsRetryable() bool  { return e.retryable }
func (e *baseError) IsUserFacing() bool { return e.userFacing }

// PlanError represents errors from the plan store.
type PlanError struct {
	baseError
	Path  string
	Phase int
}

// NewPlanError creates a new PlanError.
func NewPlanError(message string, cause error) *PlanError {
	return &PlanError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Phase: -1,
	}
}

// WithPath adds the plan document path to the error context.
func (e *PlanError) WithPath(path string) *PlanError {
	e.Path = path
	return e
}

// WithPhase adds the phase number to the error context.
func (e *PlanError) WithPhase(phase int) *PlanError {
	e.Phase = phase
	return e
}

// Error returns the formatted error message.
func (e *PlanError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	if e.Phase >= 0 {
		parts = append(parts, fmt.Sprintf("phase=%d", e.Phase))
	}
	return format("plan error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *PlanError) Is(target error) bool {
	if _, ok := target.(*PlanError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AgentError represents errors from the agent pool.
type AgentError struct {
	baseError
	SlotID int
	Ref    string
}

// NewAgentError creates a new AgentError.
func NewAgentError(message string, cause error) *AgentError {
	return &AgentError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		SlotID: -1,
	}
}

// WithSlot adds the slot ID to the error context.
func (e *AgentError) WithSlot(id int) *AgentError {
	e.SlotID = id
	return e
}

// WithRef adds the external reference to the error context.
func (e *AgentError) WithRef(ref string) *AgentError {
	e.Ref = ref
	return e
}

// Error returns the formatted error message.
func (e *AgentError) Error() string {
	var parts []string
	if e.SlotID >= 0 {
		parts = append(parts, fmt.Sprintf("slot=%d", e.SlotID))
	}
	if e.Ref != "" {
		parts = append(parts, fmt.Sprintf("ref=%s", e.Ref))
	}
	return format("agent error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *AgentError) Is(target error) bool {
	if _, ok := target.(*AgentError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TrackerError represents errors from the issue tracker client. Tracker
// failures are retryable by default: the tracker is an external
// collaborator whose unavailability must degrade, not crash.
type TrackerError struct {
	baseError
	Operation string
	Output    string
}

// NewTrackerError creates a new TrackerError.
func NewTrackerError(message string, cause error) *TrackerError {
	return &TrackerError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
	}
}

// WithOperation adds the tracker operation name to the error context.
func (e *TrackerError) WithOperation(op string) *TrackerError {
	e.Operation = op
	return e
}

// WithOutput adds captured CLI output to the error context.
func (e *TrackerError) WithOutput(output string) *TrackerError {
	e.Output = output
	return e
}

// Error returns the formatted error message.
func (e *TrackerError) Error() string {
	var parts []string
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Operation))
	}
	msg := format("tracker error", parts, e.message, e.cause)
	if e.Output != "" {
		msg = fmt.Sprintf("%s\ntracker output: %s", msg, e.Output)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *TrackerError) Is(target error) bool {
	if _, ok := target.(*TrackerError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input, reported synchronously to the
// caller and never logged as a system failure.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds the field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	return format("validation error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// NotFoundError represents a resource that could not be found. On read
// paths these are usually absorbed into empty results; the type exists for
// the operations where absence is an answer the caller asked about.
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// format builds "<prefix> [k=v, ...]: message: cause".
func format(prefix string, parts []string, message string, cause error) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

// IsRetryable reports whether the error represents a transient condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var fe ForemanError
	if As(err, &fe) {
		return fe.IsRetryable()
	}
	return false
}

// IsUserFacing reports whether the error message is safe to show users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var fe ForemanError
	if As(err, &fe) {
		return fe.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity of the error, defaulting to
// SeverityError for errors defined outside this package.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var fe ForemanError
	if As(err, &fe) {
		return fe.Severity()
	}
	return SeverityError
}

// Wrap wraps an error with an additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
