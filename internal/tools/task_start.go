package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartTool handles the task_start MCP tool.
type StartTool struct {
	base string
}

// NewStartTool creates a StartTool rooted at the given base directory.
func NewStartTool(base string) *StartTool {
	return &StartTool{base: base}
}

// Definition returns the MCP tool definition for registration.
func (t *StartTool) Definition() mcp.Tool {
	return mcp.NewTool("task_start",
		mcp.WithDescription(
			"Mark a task as in progress. Fails if another task is already "+
				"in progress or if the task's dependencies are not complete. "+
				"Starting the task that is already in progress is a no-op.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task identifier from the plan, e.g. T1"),
		),
	)
}

// Handle processes the task_start tool call.
func (t *StartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task", "")
	if id == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}

	s, err := openSession(t.base)
	if err != nil {
		return resultFromErr(err)
	}
	defer s.Close()

	if err := s.Start(id); err != nil {
		return resultFromErr(err)
	}
	task := s.Plan.TaskByID(id)
	return mcp.NewToolResultText(fmt.Sprintf(
		"Started %s: %s\n\nRecord every file change with change_record as you work, "+
			"then finish with task_complete.", id, task.Description,
	)), nil
}
