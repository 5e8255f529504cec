// Package tools implements the MCP tool handlers for the plan workflow.
//
// Each file holds one tool. Tools receive the workspace base directory
// at construction and open a fresh session per call, so a long-running
// server always observes the latest on-disk state — the tracking
// document may be edited by hand between calls.
package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/waymark-dev/waymark/internal/config"
	"github.com/waymark-dev/waymark/internal/graph"
	"github.com/waymark-dev/waymark/internal/plan"
	"github.com/waymark-dev/waymark/internal/session"
	"github.com/waymark-dev/waymark/internal/track"
	"github.com/waymark-dev/waymark/internal/trackdoc"
	"github.com/waymark-dev/waymark/internal/validate"
)

// findWorkspaceRoot walks up from base looking for waymark/workspace.json.
// If none is found it returns base itself — plan_init creates the
// workspace there, and every other tool reports no active session.
func findWorkspaceRoot(base string) (string, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		base = wd
	}
	current := base
	for {
		if _, err := os.Stat(config.ConfigPath(current)); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return base, nil
		}
		current = parent
	}
}

// openSession resolves the workspace root under base and opens the
// active session.
func openSession(base string) (*session.Session, error) {
	root, err := findWorkspaceRoot(base)
	if err != nil {
		return nil, err
	}
	return session.Open(root)
}

// resultFromErr converts workflow errors into tool results. Domain
// errors (bad task id, unmet dependency, malformed plan) become error
// results the model can read and recover from; anything else is an
// infrastructure failure surfaced through the protocol.
func resultFromErr(err error) (*mcp.CallToolResult, error) {
	var (
		malformed *plan.MalformedPlanError
		cyclic    *graph.CyclicDependencyError
		parse     *trackdoc.ParseError
		failure   *validate.Failure
		noSuch    *track.NoSuchTaskError
		depends   *track.DependencyNotSatisfiedError
		active    *track.AnotherTaskActiveError
		done      *track.TaskAlreadyCompleteError
		notStart  *track.TaskNotStartedError
		unknown   *track.UnknownTaskError
		noAck     *track.MissingAcknowledgmentError
		badField  *track.InvalidFieldError
	)
	switch {
	case errors.As(err, &malformed),
		errors.As(err, &cyclic),
		errors.As(err, &parse),
		errors.As(err, &failure),
		errors.As(err, &noSuch),
		errors.As(err, &depends),
		errors.As(err, &active),
		errors.As(err, &done),
		errors.As(err, &notStart),
		errors.As(err, &unknown),
		errors.As(err, &noAck),
		errors.As(err, &badField),
		errors.Is(err, track.ErrDocumentFinalized):
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}
