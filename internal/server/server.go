// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the tool, prompt, and
// resource handlers and registers them. No workflow logic lives here.
package server

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/waymark-dev/waymark/internal/prompts"
	"github.com/waymark-dev/waymark/internal/resources"
	"github.com/waymark-dev/waymark/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all tools, prompts, and resources
// registered. base is the directory tools resolve the workspace from;
// empty means the process working directory.
//
// The returned cleanup function is always non-nil. Handlers open and
// close their own sessions per call, so there is nothing long-lived to
// tear down today, but callers defer it so future shared state (a
// pooled journal handle, say) can be added without touching them.
func New(base string) (*server.MCPServer, func(), error) {
	s := server.NewMCPServer(
		"waymark",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register workflow tools ---

	initTool := tools.NewInitTool(base)
	s.AddTool(initTool.Definition(), initTool.Handle)

	nextTool := tools.NewNextTool(base)
	s.AddTool(nextTool.Definition(), nextTool.Handle)

	startTool := tools.NewStartTool(base)
	s.AddTool(startTool.Definition(), startTool.Handle)

	recordTool := tools.NewRecordTool(base)
	s.AddTool(recordTool.Definition(), recordTool.Handle)

	ackTool := tools.NewAckTool(base)
	s.AddTool(ackTool.Definition(), ackTool.Handle)

	completeTool := tools.NewCompleteTool(base)
	s.AddTool(completeTool.Definition(), completeTool.Handle)

	validateTool := tools.NewValidateTool(base)
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	statusTool := tools.NewStatusTool(base)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	// --- Register prompts ---

	nextTaskPrompt := prompts.NewNextTaskPrompt()
	s.AddPrompt(nextTaskPrompt.Definition(), nextTaskPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(base)
	s.AddResource(resourceHandler.WorklogResource(), resourceHandler.HandleWorklog)

	return s, noop, nil
}

func noop() {}

// serverInstructions is the system-level guidance sent to MCP hosts.
func serverInstructions() string {
	return `Waymark tracks execution of a task plan: a markdown file with
phased tasks and dependencies.

Workflow:
1. plan_init with the plan file path (once per plan).
2. task_next to see what is ready.
3. task_start before touching any file for a task. Only one task can be
   in progress at a time, and dependencies must be complete.
4. change_record after every file you add, modify, or remove.
5. task_complete when done. Tasks with no file changes need change_ack
   first.
6. plan_validate when everything is complete to attach the release
   summary and finalize the session.

The tracking document at waymark/TODO.md is the source of truth. Read
it via the waymark://session/worklog resource; never edit it directly.`
}
