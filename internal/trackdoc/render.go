// Package trackdoc serializes and parses the tracking document: the
// markdown-checklist file that is both machine-updated after every
// transition and human-read (and edited) between sessions.
//
// The grammar is strict in both directions. Render always emits the
// canonical form, and Parse rejects anything that does not conform
// rather than guessing intent, so render(parse(x)) == render(x) for any
// well-formed x. The checklist intentionally has only two checkbox
// states: Complete maps to "[x]", everything else to "[ ]". InProgress
// is a live-session concept re-derived on reload, not persisted.
package trackdoc

import (
	"fmt"
	"strings"

	"github.com/waymark-dev/waymark/internal/track"
)

// Section and line markers of the document grammar.
const (
	titlePrefix   = "# TODO: "
	planPrefix    = "Plan: "
	sessionPrefix = "Session: "
	statusPrefix  = "Status: "

	checklistHeading = "## Task Checklist"
	changesHeading   = "## Changes"
	notesHeading     = "## Notes"
	summaryHeading   = "## Release Summary"

	addedHeading    = "### Added"
	modifiedHeading = "### Modified"
	removedHeading  = "### Removed"
	noneHeading     = "### None"

	statusInProgress = "In Progress"
	statusComplete   = "Complete"

	divergencePrefix = "- divergence ("
	createTicket     = "[Create Ticket]()"
)

// Render serializes a tracking document to its canonical text form.
func Render(d *track.Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s%s\n", titlePrefix, d.PlanName)
	fmt.Fprintf(&b, "%s%s\n", planPrefix, d.PlanRef)
	fmt.Fprintf(&b, "%s%s\n", sessionPrefix, d.SessionID)
	status := statusInProgress
	if d.AllComplete() {
		status = statusComplete
	}
	fmt.Fprintf(&b, "%s%s\n", statusPrefix, status)

	b.WriteString("\n" + checklistHeading + "\n")
	for _, it := range d.Items {
		box := " "
		if it.Status == track.StatusComplete {
			box = "x"
		}
		ticket := createTicket
		if it.TicketRef != "" {
			ticket = fmt.Sprintf("[ticket](%s)", it.TicketRef)
		}
		fmt.Fprintf(&b, "- [%s] %s: %s %s\n", box, it.TaskID, it.Description, ticket)
	}

	b.WriteString("\n" + changesHeading + "\n")
	renderKind(&b, d, track.KindAdded, addedHeading)
	renderKind(&b, d, track.KindModified, modifiedHeading)
	renderKind(&b, d, track.KindRemoved, removedHeading)
	if len(d.Acks) > 0 {
		b.WriteString(noneHeading + "\n")
		for _, ack := range d.Acks {
			fmt.Fprintf(&b, "- %s - %s (%s)\n", ack.TaskID, ack.Note, ack.AckedAt)
		}
	}

	b.WriteString("\n" + notesHeading + "\n")
	if d.Notes != "" {
		b.WriteString(d.Notes + "\n")
	}
	for _, div := range d.Divergences {
		target := div.TaskID
		if div.RecordSeq != 0 {
			target = fmt.Sprintf("%s #%d", div.TaskID, div.RecordSeq)
		}
		meta := fmt.Sprintf("%s, %s", target, div.NotedAt)
		if div.Blocking {
			meta += ", blocking"
		}
		fmt.Fprintf(&b, "- divergence (%s): %s\n", meta, div.Reason)
	}

	if d.Summary != nil {
		s := d.Summary
		b.WriteString("\n" + summaryHeading + "\n")
		fmt.Fprintf(&b, "- Files added: %d\n", s.FilesAdded)
		fmt.Fprintf(&b, "- Files modified: %d\n", s.FilesModified)
		fmt.Fprintf(&b, "- Files removed: %d\n", s.FilesRemoved)
		fmt.Fprintf(&b, "- Dependencies: %s\n", s.Dependencies)
		fmt.Fprintf(&b, "- Deployment: %s\n", s.Deployment)
		fmt.Fprintf(&b, "- All criteria met: %s\n", yesNo(s.AllCriteriaMet))
	}

	return b.String()
}

// renderKind writes one "### <Kind>" group. Empty groups are omitted so
// the canonical form never holds dangling headings.
func renderKind(b *strings.Builder, d *track.Document, kind track.ChangeKind, heading string) {
	recs := d.ChangesByKind(kind)
	if len(recs) == 0 {
		return
	}
	b.WriteString(heading + "\n")
	for _, rec := range recs {
		fmt.Fprintf(b, "- %s - %s (#%d, %s, %s)\n", rec.Path, rec.Summary, rec.Seq, rec.TaskID, rec.RecordedAt)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
