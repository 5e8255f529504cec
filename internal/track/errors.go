package track

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDocumentFinalized rejects any mutation after the release summary
// has been attached.
var ErrDocumentFinalized = errors.New("tracking document is finalized")

// NoSuchTaskError reports an operation against a task id the plan never
// declared.
type NoSuchTaskError struct {
	TaskID string
}

func (e *NoSuchTaskError) Error() string {
	return fmt.Sprintf("no such task %q in the plan", e.TaskID)
}

// DependencyNotSatisfiedError rejects a Pending -> InProgress transition
// while one or more dependencies are not Complete.
type DependencyNotSatisfiedError struct {
	TaskID  string
	Missing []string
}

func (e *DependencyNotSatisfiedError) Error() string {
	return fmt.Sprintf("task %q is blocked: waiting on %s", e.TaskID, strings.Join(e.Missing, ", "))
}

// AnotherTaskActiveError enforces the at-most-one-InProgress rule.
type AnotherTaskActiveError struct {
	TaskID string
	Active string
}

func (e *AnotherTaskActiveError) Error() string {
	return fmt.Sprintf("cannot start task %q: task %q is already in progress", e.TaskID, e.Active)
}

// TaskAlreadyCompleteError reports an operation against a task that has
// reached its terminal state. Completion implies closure of that unit of
// work: no re-transition and no further change records.
type TaskAlreadyCompleteError struct {
	TaskID string
}

func (e *TaskAlreadyCompleteError) Error() string {
	return fmt.Sprintf("task %q is already complete", e.TaskID)
}

// TaskNotStartedError rejects a transition that would skip InProgress.
type TaskNotStartedError struct {
	TaskID string
}

func (e *TaskNotStartedError) Error() string {
	return fmt.Sprintf("task %q has not been started", e.TaskID)
}

// UnknownTaskError rejects a change-recording attempt against a task
// that is not currently InProgress, preventing misattribution.
type UnknownTaskError struct {
	TaskID string
	Status TaskStatus
}

func (e *UnknownTaskError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("cannot record change: task %q is not in the plan", e.TaskID)
	}
	return fmt.Sprintf("cannot record change: task %q is not in progress (status: %s)", e.TaskID, e.Status)
}

// InvalidFieldError rejects record or annotation content the tracking
// document cannot represent: whitespace inside a path, or a line break
// inside a free-text field. Letting such content through would persist
// a document the parser refuses to read back.
type InvalidFieldError struct {
	Field  string
	Value  string
	Detail string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Detail)
}

// MissingAcknowledgmentError rejects completing a task that has neither
// change records nor an explicit no-changes acknowledgment.
type MissingAcknowledgmentError struct {
	TaskID string
}

func (e *MissingAcknowledgmentError) Error() string {
	return fmt.Sprintf("cannot complete task %q: record its changes first, or acknowledge that nothing changed", e.TaskID)
}
