package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/waymark-dev/waymark/internal/session"
	"github.com/waymark-dev/waymark/internal/track"
	"github.com/waymark-dev/waymark/internal/validate"
)

var initCmd = &cobra.Command{
	Use:   "init <plan-path>",
	Short: "Create a tracking workspace from a plan document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Init(workDir, args[0])
		if err != nil {
			return err
		}
		defer s.Close()

		fmt.Printf("Initialized workspace for plan %q (%d phases, %d tasks).\n",
			s.Plan.Name, len(s.Plan.Phases), s.Plan.TaskCount())
		if next := s.Next(); len(next) > 0 {
			fmt.Printf("Next task: %s\n", next[0])
		}
		return nil
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Print the next ready task id, or \"none\"",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()

		ready := s.Next()
		if len(ready) == 0 {
			fmt.Println("none")
			return nil
		}
		fmt.Println(ready[0])
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start <task-id>",
	Short: "Begin a task (Pending -> InProgress)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Start(args[0]); err != nil {
			return err
		}
		t := s.Plan.TaskByID(args[0])
		fmt.Printf("Started %s: %s\n", t.ID, t.Description)
		return nil
	},
}

var recordCmd = &cobra.Command{
	Use:   "record <task-id> <path> <Added|Modified|Removed> <summary>",
	Short: "Append a file-change record for the task being worked",
	Args:  cobra.MinimumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()

		kind, err := track.ParseKind(args[2])
		if err != nil {
			return err
		}
		summary := strings.Join(args[3:], " ")
		rec, err := s.Record(args[0], args[1], kind, summary)
		if err != nil {
			return err
		}
		fmt.Printf("Recorded #%d: %s %s\n", rec.Seq, rec.Kind, rec.Path)
		return nil
	},
}

var ackCmd = &cobra.Command{
	Use:   "ack <task-id> [note]",
	Short: "Acknowledge that a task changed no files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()

		note := strings.Join(args[1:], " ")
		ack, err := s.AcknowledgeNoChanges(args[0], note)
		if err != nil {
			return err
		}
		fmt.Printf("Acknowledged %s: %s\n", ack.TaskID, ack.Note)
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Finish a task (InProgress -> Complete)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Complete(args[0]); err != nil {
			// Terminal state is a no-op for the operator: the task
			// needs no further action, so the command succeeds.
			var done *track.TaskAlreadyCompleteError
			if errors.As(err, &done) {
				fmt.Printf("Task %s is already complete; nothing to do.\n", args[0])
				return nil
			}
			return err
		}
		fmt.Printf("Completed %s.\n", args[0])
		if next := s.Next(); len(next) > 0 {
			fmt.Printf("Next task: %s\n", next[0])
		} else {
			fmt.Println("All tasks done — run 'waymark validate'.")
		}
		return nil
	},
}

var (
	validateDeps   string
	validateDeploy string
	validateReplay bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run completion validation and print the release summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()

		summary, err := s.Validate(validate.Options{
			Dependencies: validateDeps,
			Deployment:   validateDeploy,
		}, validateReplay)
		if err != nil {
			return err
		}

		fmt.Println("Validation passed.")
		fmt.Println()
		fmt.Println("Release Summary")
		fmt.Printf("  Files added:    %d\n", summary.FilesAdded)
		fmt.Printf("  Files modified: %d\n", summary.FilesModified)
		fmt.Printf("  Files removed:  %d\n", summary.FilesRemoved)
		fmt.Printf("  Dependencies:   %s\n", summary.Dependencies)
		fmt.Printf("  Deployment:     %s\n", summary.Deployment)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateDeps, "deps", "", "dependency/infrastructure notes for the release summary")
	validateCmd.Flags().StringVar(&validateDeploy, "deploy", "", "deployment notes for the release summary")
	validateCmd.Flags().BoolVar(&validateReplay, "replay", false, "replay the session journal to verify change attribution")
}
