package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/waymark-dev/waymark/internal/track"
)

// RecordTool handles the change_record MCP tool.
type RecordTool struct {
	base string
}

// NewRecordTool creates a RecordTool rooted at the given base directory.
func NewRecordTool(base string) *RecordTool {
	return &RecordTool{base: base}
}

// Definition returns the MCP tool definition for registration.
func (t *RecordTool) Definition() mcp.Tool {
	return mcp.NewTool("change_record",
		mcp.WithDescription(
			"Record a file change against the task that is in progress. "+
				"Every task needs at least one recorded change (or an explicit "+
				"no-changes acknowledgment) before it can be completed.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task identifier the change belongs to"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Repository-relative path of the changed file"),
		),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("What happened to the file"),
			mcp.Enum("added", "modified", "removed"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("One-line description of the change"),
		),
	)
}

// Handle processes the change_record tool call.
func (t *RecordTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task", "")
	path := req.GetString("path", "")
	kindStr := req.GetString("kind", "")
	summary := req.GetString("summary", "")
	if id == "" || path == "" || kindStr == "" || summary == "" {
		return mcp.NewToolResultError("'task', 'path', 'kind', and 'summary' are all required"), nil
	}
	kind, err := track.ParseKind(kindStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s, err := openSession(t.base)
	if err != nil {
		return resultFromErr(err)
	}
	defer s.Close()

	rec, err := s.Record(id, path, kind, summary)
	if err != nil {
		return resultFromErr(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Recorded change #%d: %s %s (%s)", rec.Seq, rec.Kind, rec.Path, rec.TaskID,
	)), nil
}
