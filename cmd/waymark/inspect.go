package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/waymark-dev/waymark/internal/session"
	"github.com/waymark-dev/waymark/internal/track"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	phaseStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// statusBullet renders the colored status marker for one task.
func statusBullet(st track.TaskStatus) string {
	switch st {
	case track.StatusComplete:
		return completeStyle.Render("[x]")
	case track.StatusInProgress:
		return activeStyle.Render("[>]")
	default:
		return pendingStyle.Render("[ ]")
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workflow status for the current plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()

		sum := s.Status()
		fmt.Println(headerStyle.Render(fmt.Sprintf("Plan: %s", sum.PlanName)))
		fmt.Printf("Session %s\n", dimStyle.Render(sum.SessionID))
		fmt.Printf("%d/%d tasks complete, %d changes recorded\n\n", sum.Done, sum.Total, sum.Changes)

		// Items are in plan-declaration order, so phases tile the
		// slice contiguously.
		i := 0
		for _, ph := range sum.Phases {
			mark := ""
			if ph.Complete {
				mark = completeStyle.Render(" (complete)")
			}
			fmt.Println(phaseStyle.Render(fmt.Sprintf("Phase: %s", ph.Name)) + mark)
			for end := i + ph.Total; i < end && i < len(sum.Items); i++ {
				it := sum.Items[i]
				fmt.Printf("  %s %s: %s\n", statusBullet(it.Status), it.TaskID, it.Description)
			}
			fmt.Println()
		}

		switch {
		case sum.Finalized:
			fmt.Println(completeStyle.Render("Session finalized — release summary attached."))
		case sum.Active != "":
			fmt.Printf("In progress: %s\n", activeStyle.Render(sum.Active))
		case len(sum.Ready) > 0:
			fmt.Printf("Next: %s\n", sum.Ready[0])
		default:
			fmt.Println("No ready tasks.")
		}
		return nil
	},
}

var (
	annotateRecord   int
	annotateBlocking bool
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <task-id> <reason>",
	Short: "Attach a divergence note to a task or change record",
	Long: `Attach a divergence note explaining where the implementation deviated
from the plan's stated intent. Divergences are informational by default;
pass --blocking to make completion validation fail until resolved.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()

		reason := ""
		for i, a := range args[1:] {
			if i > 0 {
				reason += " "
			}
			reason += a
		}
		div, err := s.Annotate(args[0], annotateRecord, reason, annotateBlocking)
		if err != nil {
			return err
		}
		target := div.TaskID
		if div.RecordSeq != 0 {
			target += " #" + strconv.Itoa(div.RecordSeq)
		}
		fmt.Printf("Noted divergence on %s.\n", target)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the session journal timeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()

		j, jErr := s.Journal()
		if j == nil {
			return fmt.Errorf("journal unavailable: %w", jErr)
		}
		events, err := j.BySession(s.SessionID())
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No journal events for this session.")
			return nil
		}
		for _, ev := range events {
			line := fmt.Sprintf("%s  %-14s", ev.CreatedAt, ev.Kind)
			if ev.TaskID != "" {
				line += " " + ev.TaskID
			}
			if ev.Path != "" {
				line += " " + ev.Path
			}
			if ev.Detail != "" {
				line += dimStyle.Render("  " + ev.Detail)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Move the finalized session into waymark/history/",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Open(workDir)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Archive(); err != nil {
			return err
		}
		fmt.Printf("Archived session %s.\n", s.SessionID())
		return nil
	},
}

func init() {
	annotateCmd.Flags().IntVar(&annotateRecord, "record", 0, "attach to a specific change record (ledger #)")
	annotateCmd.Flags().BoolVar(&annotateBlocking, "blocking", false, "fail completion validation until resolved")
}
