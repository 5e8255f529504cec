// Package track implements the progress tracker for a plan session:
// the task state machine, the append-only change ledger, and the
// tracking document aggregate that ties them together.
//
// Layout follows one concern per file:
//   - types.go: statuses, records, the Document aggregate
//   - tracker.go: state machine transitions
//   - ledger.go: append-only change recording and queries
//   - errors.go: typed transition/recording failures
package track

import (
	"fmt"
	"strings"

	"github.com/waymark-dev/waymark/internal/plan"
)

// --- Task status enum ---

// TaskStatus is the three-state task lifecycle. Complete is terminal.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusComplete   TaskStatus = "complete"
)

// --- Change kind enum ---

// ChangeKind categorizes one observed file effect.
type ChangeKind string

const (
	KindAdded    ChangeKind = "Added"
	KindModified ChangeKind = "Modified"
	KindRemoved  ChangeKind = "Removed"
)

// validKinds is the set of allowed change kinds.
var validKinds = map[ChangeKind]bool{
	KindAdded:    true,
	KindModified: true,
	KindRemoved:  true,
}

// ValidateKind returns an error if the kind is not recognized.
func ValidateKind(k ChangeKind) error {
	if !validKinds[k] {
		return fmt.Errorf("invalid change kind %q: must be one of: Added, Modified, Removed", k)
	}
	return nil
}

// ParseKind converts user input to a ChangeKind, accepting any casing
// ("added", "Modified", "REMOVED").
func ParseKind(s string) (ChangeKind, error) {
	switch strings.ToLower(s) {
	case "added":
		return KindAdded, nil
	case "modified":
		return KindModified, nil
	case "removed":
		return KindRemoved, nil
	}
	return "", fmt.Errorf("invalid change kind %q: must be one of: added, modified, removed", s)
}

// --- Core data structures ---

// ChangeRecord is one append-only ledger entry describing a file effect
// attributed to a task. Seq is 1-based and doubles as the record id:
// it is stable across render/parse round trips, unlike a random id.
type ChangeRecord struct {
	Seq        int        `json:"seq"`
	TaskID     string     `json:"task_id"`
	Path       string     `json:"path"`
	Kind       ChangeKind `json:"kind"`
	Summary    string     `json:"summary"`
	RecordedAt string     `json:"recorded_at"` // RFC3339 UTC
}

// Acknowledgment is an explicit "no file changes" confirmation for a
// task, satisfying the rule that no task completes silently.
type Acknowledgment struct {
	TaskID  string `json:"task_id"`
	Note    string `json:"note,omitempty"`
	AckedAt string `json:"acked_at"`
}

// Divergence notes that implementation deviated from the plan's stated
// intent. It attaches to a task, or to a single change record when
// RecordSeq is non-zero. Divergences are informational unless the
// operator marks them blocking.
type Divergence struct {
	TaskID    string `json:"task_id"`
	RecordSeq int    `json:"record_seq,omitempty"`
	Reason    string `json:"reason"`
	Blocking  bool   `json:"blocking,omitempty"`
	NotedAt   string `json:"noted_at"`
}

// ReleaseSummary is computed once, when completion validation passes.
type ReleaseSummary struct {
	FilesAdded     int    `json:"files_added"`
	FilesModified  int    `json:"files_modified"`
	FilesRemoved   int    `json:"files_removed"`
	Dependencies   string `json:"dependencies,omitempty"`
	Deployment     string `json:"deployment,omitempty"`
	AllCriteriaMet bool   `json:"all_criteria_met"`
}

// ChecklistItem is the per-task slice of the document: the task's
// identity as declared by the plan plus its current status.
type ChecklistItem struct {
	TaskID      string     `json:"task_id"`
	Description string     `json:"description"`
	TicketRef   string     `json:"ticket_ref,omitempty"`
	Status      TaskStatus `json:"status"`
}

// Document is the persisted aggregate for one session: the plan
// reference, the task status snapshot, the full change ledger, notes,
// and (once validation passes) the release summary. After the summary
// is attached the document is finalized and rejects further mutation.
type Document struct {
	PlanRef     string           `json:"plan_ref"`
	PlanName    string           `json:"plan_name"`
	SessionID   string           `json:"session_id"`
	Items       []ChecklistItem  `json:"items"`
	Ledger      []ChangeRecord   `json:"ledger"`
	Acks        []Acknowledgment `json:"acks,omitempty"`
	Divergences []Divergence     `json:"divergences,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	Summary     *ReleaseSummary  `json:"summary,omitempty"`
}

// NewDocument creates the session-start document for a plan: every task
// mirrored into the checklist with status Pending, empty ledger.
func NewDocument(p *plan.Plan, planRef, sessionID string) *Document {
	d := &Document{
		PlanRef:   planRef,
		PlanName:  p.Name,
		SessionID: sessionID,
	}
	for _, t := range p.Tasks() {
		d.Items = append(d.Items, ChecklistItem{
			TaskID:      t.ID,
			Description: t.Description,
			TicketRef:   t.TicketRef,
			Status:      StatusPending,
		})
	}
	return d
}

// Status returns the tracked status of a task, or "" if the task is not
// in the checklist.
func (d *Document) Status(id string) TaskStatus {
	for i := range d.Items {
		if d.Items[i].TaskID == id {
			return d.Items[i].Status
		}
	}
	return ""
}

// setStatus updates a task's snapshot. Unknown ids are ignored; callers
// validate first.
func (d *Document) setStatus(id string, st TaskStatus) {
	for i := range d.Items {
		if d.Items[i].TaskID == id {
			d.Items[i].Status = st
			return
		}
	}
}

// Active returns the id of the task currently InProgress, or "".
func (d *Document) Active() string {
	for i := range d.Items {
		if d.Items[i].Status == StatusInProgress {
			return d.Items[i].TaskID
		}
	}
	return ""
}

// Done returns the set of Complete task ids.
func (d *Document) Done() map[string]bool {
	done := make(map[string]bool)
	for i := range d.Items {
		if d.Items[i].Status == StatusComplete {
			done[d.Items[i].TaskID] = true
		}
	}
	return done
}

// AllComplete reports whether every checklist task is Complete.
func (d *Document) AllComplete() bool {
	for i := range d.Items {
		if d.Items[i].Status != StatusComplete {
			return false
		}
	}
	return true
}

// Finalized reports whether the release summary has been attached,
// making the document read-only.
func (d *Document) Finalized() bool { return d.Summary != nil }

// PhaseComplete derives a phase's completion from its tasks' statuses.
// Never stored — always recomputed, so there is no second source of
// truth to drift.
func (d *Document) PhaseComplete(ph *plan.Phase) bool {
	for _, t := range ph.Tasks {
		if d.Status(t.ID) != StatusComplete {
			return false
		}
	}
	return true
}

// Resume restores the live InProgress marker after a reload. The
// checkbox format cannot persist InProgress, so it is re-derived: the
// first incomplete task (declaration order) that already has ledger
// activity was the one being worked when the previous session ended.
func (d *Document) Resume() string {
	for i := range d.Items {
		it := &d.Items[i]
		if it.Status != StatusPending {
			continue
		}
		if len(d.ChangesByTask(it.TaskID)) > 0 || d.hasAck(it.TaskID) {
			it.Status = StatusInProgress
			return it.TaskID
		}
	}
	return ""
}

// String renders a short human summary, useful in logs and errors.
func (d *Document) String() string {
	done := 0
	for i := range d.Items {
		if d.Items[i].Status == StatusComplete {
			done++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d/%d tasks complete, %d changes", d.PlanName, done, len(d.Items), len(d.Ledger))
	if d.Finalized() {
		b.WriteString(", finalized")
	}
	return b.String()
}
