package main

import (
	"github.com/spf13/cobra"
	"github.com/waymark-dev/waymark/internal/session"
	"github.com/waymark-dev/waymark/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive plan board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()
		return tui.Run(s)
	},
}
