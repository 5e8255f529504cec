// Waymark: plan-driven task tracking for AI-assisted development.
//
// Waymark loads a phased plan, drives its tasks through a strict
// Pending -> InProgress -> Complete lifecycle, records every file
// change in an append-only ledger, and validates completion before a
// release summary is produced. The tracking document it maintains is
// plain markdown: machine-updated, human-readable, and safe to edit
// between sessions.
//
// Usage:
//
//	waymark init <plan.md>   # create a workspace from a plan
//	waymark next             # print the next ready task
//	waymark start <task>     # begin a task
//	waymark record ...       # log a file change
//	waymark complete <task>  # finish a task
//	waymark validate         # final gate + release summary
//	waymark serve            # MCP server (stdio transport)
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/waymark-dev/waymark/internal/graph"
	"github.com/waymark-dev/waymark/internal/plan"
	"github.com/waymark-dev/waymark/internal/track"
	"github.com/waymark-dev/waymark/internal/validate"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Exit codes, fixed so scripts and agents can branch on failures.
const (
	exitFailure       = 1
	exitMalformedPlan = 2
	exitBlocked       = 3
	exitUnknownTask   = 4
	exitMissingAck    = 5
	exitValidation    = 6
)

var workDir string

var rootCmd = &cobra.Command{
	Use:           "waymark",
	Short:         "Plan-driven task tracking for AI-assisted development",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", ".", "project root directory")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the typed failure taxonomy onto the CLI's exit codes.
// Everything unrecognized (I/O failures included) is a plain failure.
func exitCode(err error) int {
	var (
		malformed  *plan.MalformedPlanError
		cyclic     *graph.CyclicDependencyError
		dep        *track.DependencyNotSatisfiedError
		active     *track.AnotherTaskActiveError
		unknown    *track.UnknownTaskError
		complete   *track.TaskAlreadyCompleteError
		noSuch     *track.NoSuchTaskError
		notStarted *track.TaskNotStartedError
		missing    *track.MissingAcknowledgmentError
		failure    *validate.Failure
	)
	switch {
	case errors.As(err, &malformed), errors.As(err, &cyclic):
		return exitMalformedPlan
	case errors.As(err, &dep), errors.As(err, &active):
		return exitBlocked
	case errors.As(err, &unknown), errors.As(err, &complete), errors.As(err, &noSuch):
		return exitUnknownTask
	case errors.As(err, &missing), errors.As(err, &notStarted):
		return exitMissingAck
	case errors.As(err, &failure):
		return exitValidation
	default:
		return exitFailure
	}
}
