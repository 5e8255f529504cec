package trackdoc

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/waymark-dev/waymark/internal/track"
)

// ParseError reports a tracking document that does not conform to the
// grammar. Parsing fails closed: a corrupted or hand-mangled document
// is surfaced to the operator, never silently repaired.
type ParseError struct {
	Line   int
	Detail string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("tracking document: line %d: %s", e.Line, e.Detail)
	}
	return fmt.Sprintf("tracking document: %s", e.Detail)
}

func parseErr(line int, format string, args ...any) error {
	return &ParseError{Line: line, Detail: fmt.Sprintf(format, args...)}
}

var (
	checkItemRe = regexp.MustCompile(`^- \[([ x])\] ([A-Za-z][A-Za-z0-9_-]*): (.+) (\[Create Ticket\]\(\)|\[ticket\]\([^()]*\))$`)
	ticketUrlRe = regexp.MustCompile(`^\[ticket\]\(([^()]*)\)$`)
	changeRe    = regexp.MustCompile(`^- (\S+) - (.*) \(#(\d+), ([A-Za-z][A-Za-z0-9_-]*), ([^(),\s]+)\)$`)
	ackRe       = regexp.MustCompile(`^- ([A-Za-z][A-Za-z0-9_-]*) - (.*) \(([^()]+)\)$`)
	divergeRe   = regexp.MustCompile(`^- divergence \(([A-Za-z][A-Za-z0-9_-]*)( #\d+)?, ([^(),]+)(, blocking)?\): (.*)$`)
)

// parser sections.
const (
	secHeader = iota
	secChecklist
	secChanges
	secNotes
	secSummary
)

// Parse reads a tracking document from its canonical text form.
func Parse(text string) (*track.Document, error) {
	d := &track.Document{}
	section := secHeader
	var kind track.ChangeKind
	inAcks := false
	var notes []string
	headerSeen := map[string]bool{}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, raw := range lines {
		no := i + 1
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" && section != secNotes {
			continue
		}

		// Section headings switch the parser state regardless of the
		// current section, but only in document order.
		switch line {
		case checklistHeading:
			if section >= secChecklist {
				return nil, parseErr(no, "unexpected %q", line)
			}
			section = secChecklist
			continue
		case changesHeading:
			if section >= secChanges {
				return nil, parseErr(no, "unexpected %q", line)
			}
			section = secChanges
			continue
		case notesHeading:
			if section >= secNotes {
				return nil, parseErr(no, "unexpected %q", line)
			}
			section = secNotes
			continue
		case summaryHeading:
			if section >= secSummary {
				return nil, parseErr(no, "unexpected %q", line)
			}
			section = secSummary
			d.Summary = &track.ReleaseSummary{}
			continue
		}

		switch section {
		case secHeader:
			if err := parseHeaderLine(d, headerSeen, no, line); err != nil {
				return nil, err
			}
		case secChecklist:
			item, err := parseChecklistLine(no, line)
			if err != nil {
				return nil, err
			}
			d.Items = append(d.Items, *item)
		case secChanges:
			switch line {
			case addedHeading:
				kind, inAcks = track.KindAdded, false
			case modifiedHeading:
				kind, inAcks = track.KindModified, false
			case removedHeading:
				kind, inAcks = track.KindRemoved, false
			case noneHeading:
				inAcks = true
			default:
				if inAcks {
					ack, err := parseAckLine(no, line)
					if err != nil {
						return nil, err
					}
					d.Acks = append(d.Acks, *ack)
					continue
				}
				if kind == "" {
					return nil, parseErr(no, "change entry before a kind heading: %q", line)
				}
				rec, err := parseChangeLine(no, line, kind)
				if err != nil {
					return nil, err
				}
				d.Ledger = append(d.Ledger, *rec)
			}
		case secNotes:
			if strings.HasPrefix(line, divergencePrefix) {
				div, err := parseDivergenceLine(no, line)
				if err != nil {
					return nil, err
				}
				d.Divergences = append(d.Divergences, *div)
				continue
			}
			notes = append(notes, line)
		case secSummary:
			if err := parseSummaryLine(d.Summary, no, line); err != nil {
				return nil, err
			}
		}
	}

	d.Notes = strings.TrimRight(strings.Join(notes, "\n"), "\n")
	// Trailing blank lines inside Notes collapse; strip a leading blank
	// left by the section break too.
	d.Notes = strings.TrimLeft(d.Notes, "\n")

	if err := finish(d, headerSeen, section); err != nil {
		return nil, err
	}
	return d, nil
}

// parseHeaderLine consumes the four fixed header lines.
func parseHeaderLine(d *track.Document, seen map[string]bool, no int, line string) error {
	once := func(field string) error {
		if seen[field] {
			return parseErr(no, "duplicate %s header", field)
		}
		seen[field] = true
		return nil
	}
	switch {
	case strings.HasPrefix(line, titlePrefix):
		if err := once("title"); err != nil {
			return err
		}
		d.PlanName = strings.TrimPrefix(line, titlePrefix)
	case strings.HasPrefix(line, planPrefix):
		if err := once("plan"); err != nil {
			return err
		}
		d.PlanRef = strings.TrimPrefix(line, planPrefix)
	case strings.HasPrefix(line, sessionPrefix):
		if err := once("session"); err != nil {
			return err
		}
		d.SessionID = strings.TrimPrefix(line, sessionPrefix)
	case strings.HasPrefix(line, statusPrefix):
		if err := once("status"); err != nil {
			return err
		}
		st := strings.TrimPrefix(line, statusPrefix)
		if st != statusInProgress && st != statusComplete {
			return parseErr(no, "unknown status %q", st)
		}
		seen["status:"+st] = true
	default:
		return parseErr(no, "unexpected header line %q", line)
	}
	return nil
}

func parseChecklistLine(no int, line string) (*track.ChecklistItem, error) {
	m := checkItemRe.FindStringSubmatch(line)
	if m == nil {
		return nil, parseErr(no, "malformed checklist entry %q", line)
	}
	item := &track.ChecklistItem{
		TaskID:      m[2],
		Description: m[3],
		Status:      track.StatusPending,
	}
	if m[1] == "x" {
		item.Status = track.StatusComplete
	}
	if tm := ticketUrlRe.FindStringSubmatch(m[4]); tm != nil {
		item.TicketRef = tm[1]
	}
	return item, nil
}

func parseChangeLine(no int, line string, kind track.ChangeKind) (*track.ChangeRecord, error) {
	m := changeRe.FindStringSubmatch(line)
	if m == nil {
		return nil, parseErr(no, "malformed change entry %q", line)
	}
	seq, err := strconv.Atoi(m[3])
	if err != nil || seq < 1 {
		return nil, parseErr(no, "bad change sequence in %q", line)
	}
	return &track.ChangeRecord{
		Seq:        seq,
		TaskID:     m[4],
		Path:       m[1],
		Kind:       kind,
		Summary:    m[2],
		RecordedAt: m[5],
	}, nil
}

func parseAckLine(no int, line string) (*track.Acknowledgment, error) {
	m := ackRe.FindStringSubmatch(line)
	if m == nil {
		return nil, parseErr(no, "malformed acknowledgment entry %q", line)
	}
	return &track.Acknowledgment{TaskID: m[1], Note: m[2], AckedAt: m[3]}, nil
}

func parseDivergenceLine(no int, line string) (*track.Divergence, error) {
	m := divergeRe.FindStringSubmatch(line)
	if m == nil {
		return nil, parseErr(no, "malformed divergence entry %q", line)
	}
	// The blocking flag lives in the parenthesized metadata, never in
	// the free-text reason, so a reason that happens to mention
	// "blocking" survives a reload untouched.
	div := &track.Divergence{TaskID: m[1], NotedAt: m[3], Blocking: m[4] != "", Reason: m[5]}
	if m[2] != "" {
		seq, err := strconv.Atoi(strings.TrimPrefix(m[2], " #"))
		if err != nil {
			return nil, parseErr(no, "bad record reference in %q", line)
		}
		div.RecordSeq = seq
	}
	return div, nil
}

func parseSummaryLine(s *track.ReleaseSummary, no int, line string) error {
	val := func(prefix string) (string, bool) {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix), true
		}
		return "", false
	}
	count := func(raw string) (int, error) {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, parseErr(no, "bad count %q", raw)
		}
		return n, nil
	}

	var err error
	switch {
	case has(line, "- Files added: "):
		v, _ := val("- Files added: ")
		s.FilesAdded, err = count(v)
	case has(line, "- Files modified: "):
		v, _ := val("- Files modified: ")
		s.FilesModified, err = count(v)
	case has(line, "- Files removed: "):
		v, _ := val("- Files removed: ")
		s.FilesRemoved, err = count(v)
	case has(line, "- Dependencies: "):
		s.Dependencies, _ = val("- Dependencies: ")
	case has(line, "- Deployment: "):
		s.Deployment, _ = val("- Deployment: ")
	case has(line, "- All criteria met: "):
		v, _ := val("- All criteria met: ")
		switch v {
		case "yes":
			s.AllCriteriaMet = true
		case "no":
			s.AllCriteriaMet = false
		default:
			return parseErr(no, "bad criteria value %q", v)
		}
	default:
		return parseErr(no, "unexpected summary line %q", line)
	}
	return err
}

func has(line, prefix string) bool { return strings.HasPrefix(line, prefix) }

// finish validates cross-cutting invariants after the line scan: all
// header fields present, ledger sequence contiguous, and the persisted
// status consistent with the checklist.
func finish(d *track.Document, seen map[string]bool, section int) error {
	for _, field := range []string{"title", "plan", "session", "status"} {
		if !seen[field] {
			return parseErr(0, "missing %s header", field)
		}
	}
	if section < secNotes {
		return parseErr(0, "document is truncated")
	}

	// The ledger is grouped by kind on disk; restore insertion order.
	sort.SliceStable(d.Ledger, func(i, j int) bool { return d.Ledger[i].Seq < d.Ledger[j].Seq })
	for i, rec := range d.Ledger {
		if rec.Seq != i+1 {
			return parseErr(0, "change ledger sequence is not contiguous at #%d", rec.Seq)
		}
	}

	wantStatus := statusInProgress
	if d.AllComplete() && len(d.Items) > 0 {
		wantStatus = statusComplete
	}
	if !seen["status:"+wantStatus] {
		return parseErr(0, "status line disagrees with the task checklist")
	}

	if len(d.Items) == 0 {
		return parseErr(0, "task checklist is empty")
	}

	ids := make(map[string]bool, len(d.Items))
	for _, it := range d.Items {
		if ids[it.TaskID] {
			return parseErr(0, "task %q appears twice in the checklist", it.TaskID)
		}
		ids[it.TaskID] = true
	}
	for _, rec := range d.Ledger {
		if !ids[rec.TaskID] {
			return parseErr(0, "change #%d refers to unknown task %q", rec.Seq, rec.TaskID)
		}
	}
	for _, ack := range d.Acks {
		if !ids[ack.TaskID] {
			return parseErr(0, "acknowledgment refers to unknown task %q", ack.TaskID)
		}
	}
	for _, div := range d.Divergences {
		if !ids[div.TaskID] {
			return parseErr(0, "divergence refers to unknown task %q", div.TaskID)
		}
		if div.RecordSeq != 0 && (div.RecordSeq < 1 || div.RecordSeq > len(d.Ledger)) {
			return parseErr(0, "divergence refers to unknown change #%d", div.RecordSeq)
		}
	}
	return nil
}
