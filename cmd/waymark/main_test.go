package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/waymark-dev/waymark/internal/graph"
	"github.com/waymark-dev/waymark/internal/plan"
	"github.com/waymark-dev/waymark/internal/track"
	"github.com/waymark-dev/waymark/internal/validate"
)

func TestExitCode_Mapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"malformed plan", &plan.MalformedPlanError{Source: "p.md", Detail: "bad"}, exitMalformedPlan},
		{"cyclic dependency", &graph.CyclicDependencyError{Tasks: []string{"T1", "T2"}}, exitMalformedPlan},
		{"dependency not satisfied", &track.DependencyNotSatisfiedError{TaskID: "T2", Missing: []string{"T1"}}, exitBlocked},
		{"another task active", &track.AnotherTaskActiveError{TaskID: "T2", Active: "T1"}, exitBlocked},
		{"unknown task", &track.UnknownTaskError{TaskID: "T9"}, exitUnknownTask},
		{"no such task", &track.NoSuchTaskError{TaskID: "T9"}, exitUnknownTask},
		{"already complete", &track.TaskAlreadyCompleteError{TaskID: "T1"}, exitUnknownTask},
		{"missing acknowledgment", &track.MissingAcknowledgmentError{TaskID: "T1"}, exitMissingAck},
		{"not started", &track.TaskNotStartedError{TaskID: "T1"}, exitMissingAck},
		{"validation failure", &validate.Failure{Check: validate.CheckTasksComplete, Detail: "T2"}, exitValidation},
		{"plain error", errors.New("disk full"), exitFailure},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := exitCode(c.err); got != c.want {
				t.Errorf("exitCode(%v) = %d, want %d", c.err, got, c.want)
			}
		})
	}
}

func TestExitCode_WrappedError(t *testing.T) {
	err := fmt.Errorf("starting task: %w", &track.DependencyNotSatisfiedError{TaskID: "T2", Missing: []string{"T1"}})
	if got := exitCode(err); got != exitBlocked {
		t.Errorf("exitCode = %d, want %d", got, exitBlocked)
	}
}
