// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data the host can pull for context. They
// use URI-based addressing (waymark://...) following MCP conventions.
package resources

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/waymark-dev/waymark/internal/config"
)

// Handler serves the tracking-document resources.
type Handler struct {
	base string
}

// NewHandler creates a resource Handler rooted at the given base directory.
func NewHandler(base string) *Handler {
	return &Handler{base: base}
}

// WorklogResource returns the MCP resource definition for the tracking
// document.
func (h *Handler) WorklogResource() mcp.Resource {
	return mcp.NewResource(
		"waymark://session/worklog",
		"Session Worklog",
		mcp.WithResourceDescription("The canonical tracking document: checklist, change ledger, notes, and release summary"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleWorklog returns the raw tracking document. The on-disk bytes
// are already canonical — every mutation rewrites the whole file — so
// no re-render is needed here.
func (h *Handler) HandleWorklog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	root, err := findResourceRoot(h.base)
	if err != nil {
		return nil, fmt.Errorf("finding workspace root: %w", err)
	}

	data, err := os.ReadFile(config.TrackingPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return errorResource(req.Params.URI, "no active session — run plan_init first"), nil
		}
		return nil, fmt.Errorf("reading tracking document: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource carrying an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
