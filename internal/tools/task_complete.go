package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/waymark-dev/waymark/internal/track"
)

// CompleteTool handles the task_complete MCP tool.
type CompleteTool struct {
	base string
}

// NewCompleteTool creates a CompleteTool rooted at the given base directory.
func NewCompleteTool(base string) *CompleteTool {
	return &CompleteTool{base: base}
}

// Definition returns the MCP tool definition for registration.
func (t *CompleteTool) Definition() mcp.Tool {
	return mcp.NewTool("task_complete",
		mcp.WithDescription(
			"Mark the in-progress task as complete. Requires at least one "+
				"recorded change or a no-changes acknowledgment. Completion "+
				"is permanent. Completing an already-complete task is a no-op.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task identifier to complete"),
		),
	)
}

// Handle processes the task_complete tool call.
func (t *CompleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task", "")
	if id == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}

	s, err := openSession(t.base)
	if err != nil {
		return resultFromErr(err)
	}
	defer s.Close()

	if err := s.Complete(id); err != nil {
		var already *track.TaskAlreadyCompleteError
		if errors.As(err, &already) {
			return mcp.NewToolResultText(fmt.Sprintf("%s is already complete — nothing to do.", id)), nil
		}
		return resultFromErr(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Completed %s.\n", id)
	if ready := s.Next(); len(ready) > 0 {
		fmt.Fprintf(&b, "Now ready: %s.", strings.Join(ready, ", "))
	} else if s.Document().AllComplete() {
		b.WriteString("All tasks are complete. Run plan_validate to finalize the session.")
	} else {
		b.WriteString("Remaining tasks are blocked on incomplete dependencies.")
	}
	return mcp.NewToolResultText(b.String()), nil
}
