package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// AckTool handles the change_ack MCP tool: the explicit "this task
// touched no files" acknowledgment that substitutes for a ledger entry.
type AckTool struct {
	base string
}

// NewAckTool creates an AckTool rooted at the given base directory.
func NewAckTool(base string) *AckTool {
	return &AckTool{base: base}
}

// Definition returns the MCP tool definition for registration.
func (t *AckTool) Definition() mcp.Tool {
	return mcp.NewTool("change_ack",
		mcp.WithDescription(
			"Acknowledge that the in-progress task intentionally produced "+
				"no file changes. Required before completing a task with an "+
				"empty ledger. Idempotent.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task identifier being acknowledged"),
		),
		mcp.WithString("note",
			mcp.Description("Why no changes were needed (e.g. 'verification only')"),
		),
	)
}

// Handle processes the change_ack tool call.
func (t *AckTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task", "")
	if id == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}

	s, err := openSession(t.base)
	if err != nil {
		return resultFromErr(err)
	}
	defer s.Close()

	ack, err := s.AcknowledgeNoChanges(id, req.GetString("note", ""))
	if err != nil {
		return resultFromErr(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Acknowledged: %s produced no file changes (%s). The task can now be completed.",
		ack.TaskID, ack.Note,
	)), nil
}
