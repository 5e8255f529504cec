// Package prompts implements the MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// NextTaskPrompt handles the next-task MCP prompt. It walks the AI
// through one full task cycle: pick, start, record changes, complete.
type NextTaskPrompt struct{}

// NewNextTaskPrompt creates a NextTaskPrompt.
func NewNextTaskPrompt() *NextTaskPrompt {
	return &NextTaskPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *NextTaskPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("next-task",
		mcp.WithPromptDescription(
			"Work the next ready task in the active plan: start it, do the "+
				"work while recording every file change, then complete it.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("A specific task id to work on instead of the first ready one"),
		),
	)
}

// Handle processes the next-task prompt request.
func (p *NextTaskPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	pick := "Call task_next and pick the first ready task."
	if args := req.Params.Arguments; args != nil {
		if id, ok := args["task"]; ok && id != "" {
			pick = fmt.Sprintf("Work on task %s.", id)
		}
	}

	instructions := fmt.Sprintf(
		"Work one task from the active plan, end to end:\n\n"+
			"1. %s\n"+
			"2. Call task_start with its id. If it fails because a dependency "+
			"is incomplete or another task is active, stop and report why.\n"+
			"3. Do the work. After every file you add, modify, or remove, call "+
			"change_record with the path, the kind, and a one-line summary. "+
			"Record changes as you go, not in a batch at the end.\n"+
			"4. If the task genuinely required no file changes, call change_ack "+
			"with a note saying why.\n"+
			"5. Call task_complete. Report what was done and what is ready next.\n\n"+
			"Never edit waymark/TODO.md by hand — it is managed by the tools.",
		pick,
	)

	return &mcp.GetPromptResult{
		Description: "Work the next ready task",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: instructions,
				},
			},
		},
	}, nil
}
