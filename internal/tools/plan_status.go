package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/waymark-dev/waymark/internal/track"
)

// StatusTool handles the plan_status MCP tool.
type StatusTool struct {
	base string
}

// NewStatusTool creates a StatusTool rooted at the given base directory.
func NewStatusTool(base string) *StatusTool {
	return &StatusTool{base: base}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_status",
		mcp.WithDescription(
			"Show the full workflow state: per-phase task checklist, the "+
				"in-progress task, ready tasks, and change counts.",
		),
	)
}

// Handle processes the plan_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := openSession(t.base)
	if err != nil {
		return resultFromErr(err)
	}
	defer s.Close()

	sum := s.Status()
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sum.PlanName)
	fmt.Fprintf(&b, "Session %s — %d/%d tasks complete, %d changes recorded.\n\n",
		sum.SessionID, sum.Done, sum.Total, sum.Changes)

	i := 0
	for _, ph := range sum.Phases {
		fmt.Fprintf(&b, "## %s (%d/%d)\n\n", ph.Name, ph.Done, ph.Total)
		for end := i + ph.Total; i < end && i < len(sum.Items); i++ {
			it := sum.Items[i]
			mark := " "
			switch it.Status {
			case track.StatusComplete:
				mark = "x"
			case track.StatusInProgress:
				mark = ">"
			}
			fmt.Fprintf(&b, "- [%s] %s: %s\n", mark, it.TaskID, it.Description)
		}
		b.WriteString("\n")
	}

	switch {
	case sum.Finalized:
		b.WriteString("Session is finalized.")
	case sum.Active != "":
		fmt.Fprintf(&b, "In progress: %s.", sum.Active)
	case len(sum.Ready) > 0:
		fmt.Fprintf(&b, "Ready: %s.", strings.Join(sum.Ready, ", "))
	default:
		b.WriteString("No tasks are ready.")
	}
	return mcp.NewToolResultText(b.String()), nil
}
