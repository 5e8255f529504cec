package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/waymark-dev/waymark/internal/validate"
)

// ValidateTool handles the plan_validate MCP tool.
type ValidateTool struct {
	base string
}

// NewValidateTool creates a ValidateTool rooted at the given base directory.
func NewValidateTool(base string) *ValidateTool {
	return &ValidateTool{base: base}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_validate",
		mcp.WithDescription(
			"Run completion validation: every task complete, every phase "+
				"complete, every task's ledger non-empty or acknowledged, and "+
				"no blocking divergences. On success the release summary is "+
				"attached and the session becomes read-only.",
		),
		mcp.WithString("dependencies",
			mcp.Description("Dependency changes to note in the release summary (defaults to 'none')"),
		),
		mcp.WithString("deployment",
			mcp.Description("Deployment steps to note in the release summary (defaults to 'none')"),
		),
		mcp.WithBoolean("replay",
			mcp.Description("Also replay the session journal to verify the ledger was built through recorded operations"),
		),
	)
}

// Handle processes the plan_validate tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := openSession(t.base)
	if err != nil {
		return resultFromErr(err)
	}
	defer s.Close()

	opts := validate.Options{
		Dependencies: req.GetString("dependencies", ""),
		Deployment:   req.GetString("deployment", ""),
	}
	sum, err := s.Validate(opts, req.GetBool("replay", false))
	if err != nil {
		return resultFromErr(err)
	}

	var b strings.Builder
	b.WriteString("# Validation Passed\n\n")
	fmt.Fprintf(&b, "- Files added: %d\n", sum.FilesAdded)
	fmt.Fprintf(&b, "- Files modified: %d\n", sum.FilesModified)
	fmt.Fprintf(&b, "- Files removed: %d\n", sum.FilesRemoved)
	fmt.Fprintf(&b, "- Dependencies: %s\n", sum.Dependencies)
	fmt.Fprintf(&b, "- Deployment: %s\n\n", sum.Deployment)
	b.WriteString("The session is finalized. Use the archive command to move it into history.")
	return mcp.NewToolResultText(b.String()), nil
}
