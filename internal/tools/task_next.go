package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// NextTool handles the task_next MCP tool.
type NextTool struct {
	base string
}

// NewNextTool creates a NextTool rooted at the given base directory.
func NewNextTool(base string) *NextTool {
	return &NextTool{base: base}
}

// Definition returns the MCP tool definition for registration.
func (t *NextTool) Definition() mcp.Tool {
	return mcp.NewTool("task_next",
		mcp.WithDescription(
			"List the tasks that are ready to work on: the in-progress task "+
				"first if one exists, then pending tasks whose dependencies "+
				"are all complete, in plan order.",
		),
	)
}

// Handle processes the task_next tool call.
func (t *NextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := openSession(t.base)
	if err != nil {
		return resultFromErr(err)
	}
	defer s.Close()

	ready := s.Next()
	if len(ready) == 0 {
		if s.Document().AllComplete() {
			return mcp.NewToolResultText("All tasks are complete. Run plan_validate to finalize the session."), nil
		}
		return mcp.NewToolResultText("No tasks are ready — remaining tasks are blocked on incomplete dependencies."), nil
	}

	var b strings.Builder
	b.WriteString("Ready tasks:\n")
	for _, id := range ready {
		task := s.Plan.TaskByID(id)
		marker := ""
		if s.Document().Active() == id {
			marker = " (in progress)"
		}
		fmt.Fprintf(&b, "- %s: %s%s\n", id, task.Description, marker)
	}
	return mcp.NewToolResultText(b.String()), nil
}
