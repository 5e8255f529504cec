package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/waymark-dev/waymark/internal/config"
	"github.com/waymark-dev/waymark/internal/session"
)

// InitTool handles the plan_init MCP tool. It loads a plan file,
// validates its dependency graph, and creates the tracking workspace.
type InitTool struct {
	base string
}

// NewInitTool creates an InitTool rooted at the given base directory.
func NewInitTool(base string) *InitTool {
	return &InitTool{base: base}
}

// Definition returns the MCP tool definition for registration.
func (t *InitTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_init",
		mcp.WithDescription(
			"Initialize task tracking for a plan file. Parses the plan, "+
				"validates its dependency graph, and creates waymark/ with "+
				"the workspace config and the TODO.md tracking document. "+
				"This is always the first step.",
		),
		mcp.WithString("plan",
			mcp.Required(),
			mcp.Description("Path to the plan markdown file, relative to the project root"),
		),
	)
}

// Handle processes the plan_init tool call.
func (t *InitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planPath := req.GetString("plan", "")
	if planPath == "" {
		return mcp.NewToolResultError("'plan' is required"), nil
	}

	root, err := findWorkspaceRoot(t.base)
	if err != nil {
		return nil, err
	}
	s, err := session.Init(root, planPath)
	if err != nil {
		return resultFromErr(err)
	}
	defer s.Close()

	sum := s.Status()
	var b strings.Builder
	fmt.Fprintf(&b, "# Tracking Initialized\n\n")
	fmt.Fprintf(&b, "**Plan:** %s (%d tasks in %d phases)\n", sum.PlanName, sum.Total, len(sum.Phases))
	fmt.Fprintf(&b, "**Session:** %s\n", sum.SessionID)
	fmt.Fprintf(&b, "**Document:** `%s/%s`\n\n", config.Dir, config.TrackingFile)
	if len(sum.Ready) > 0 {
		fmt.Fprintf(&b, "Ready to start: %s. Use `task_start` to begin.\n", strings.Join(sum.Ready, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}
