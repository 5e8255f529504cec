package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	waymarkserver "github.com/waymark-dev/waymark/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Start an MCP server over stdio so AI coding tools can drive the
plan workflow directly. Diagnostics go to stderr; stdout is reserved
for the MCP transport.

Add to your tool's MCP config:

  {
    "mcpServers": {
      "waymark": {
        "command": "waymark",
        "args": ["serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the MCP transport, so logs must not touch it.
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		waymarkserver.Version = Version
		s, cleanup, err := waymarkserver.New(workDir)
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		defer cleanup()

		logger.Info("waymark MCP server starting", "version", Version, "dir", workDir)
		return server.ServeStdio(s)
	},
}
