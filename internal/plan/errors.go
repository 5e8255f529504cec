package plan

import (
	"errors"
	"fmt"
)

// Malformed-plan failure causes. Each is a distinct sentinel so callers
// can branch on the exact defect while still treating the whole family
// as fatal via errors.As on *MalformedPlanError.
var (
	ErrNoPhases          = errors.New("plan has no phases")
	ErrEmptyPhase        = errors.New("phase has no tasks")
	ErrDuplicateTaskID   = errors.New("duplicate task id")
	ErrUnknownDependency = errors.New("dependency references unknown task id")
	ErrBadSyntax         = errors.New("unrecognized plan syntax")
)

// MalformedPlanError reports a plan source that cannot be parsed into
// well-formed phases and tasks. It is fatal: no partial Plan is ever
// returned alongside it.
type MalformedPlanError struct {
	Source string
	Line   int // 1-based source line, 0 when not line-specific
	Detail string
	Cause  error // one of the sentinels above
}

func (e *MalformedPlanError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed plan %q: line %d: %s", e.Source, e.Line, e.Detail)
	}
	return fmt.Sprintf("malformed plan %q: %s", e.Source, e.Detail)
}

func (e *MalformedPlanError) Unwrap() error { return e.Cause }

// malformed builds a MalformedPlanError with a formatted detail message.
func malformed(source string, line int, cause error, format string, args ...any) error {
	return &MalformedPlanError{
		Source: source,
		Line:   line,
		Detail: fmt.Sprintf(format, args...),
		Cause:  cause,
	}
}
