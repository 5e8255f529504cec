package track

// --- State machine for task execution ---
//
// States: Pending -> InProgress -> Complete. Complete is terminal.
// No transition skips InProgress, and at most one task is InProgress
// at any moment — one agent drives one task at a time, which is what
// lets the whole tracking document get by without locks.

import (
	"github.com/waymark-dev/waymark/internal/graph"
	"github.com/waymark-dev/waymark/internal/plan"
)

// Tracker drives task status transitions against a Document, consulting
// the dependency graph for legal next tasks. All transition failures
// are typed values; the caller decides whether to retry, pick another
// ready task, or abort the session.
type Tracker struct {
	plan  *plan.Plan
	graph *graph.Graph
	doc   *Document
}

// NewTracker binds a plan, its graph, and the session document.
func NewTracker(p *plan.Plan, g *graph.Graph, d *Document) *Tracker {
	return &Tracker{plan: p, graph: g, doc: d}
}

// Document returns the tracked aggregate.
func (t *Tracker) Document() *Document { return t.doc }

// Ready returns the ordered task ids that may be worked next: an
// interrupted InProgress task first, then eligible Pending tasks in
// plan-declaration order.
func (t *Tracker) Ready() []string {
	return t.graph.Ready(t.doc.Done(), t.doc.Active())
}

// Start transitions a task Pending -> InProgress.
//
// Fails with *DependencyNotSatisfiedError when a dependency is not
// Complete, *AnotherTaskActiveError while a different task is
// InProgress, and *TaskAlreadyCompleteError on a terminal task.
// Starting the task that is already InProgress is a no-op (resume).
func (t *Tracker) Start(id string) error {
	if t.doc.Finalized() {
		return ErrDocumentFinalized
	}
	if t.plan.TaskByID(id) == nil {
		return &NoSuchTaskError{TaskID: id}
	}
	switch t.doc.Status(id) {
	case StatusComplete:
		return &TaskAlreadyCompleteError{TaskID: id}
	case StatusInProgress:
		return nil
	}
	if active := t.doc.Active(); active != "" {
		return &AnotherTaskActiveError{TaskID: id, Active: active}
	}
	done := t.doc.Done()
	if !t.graph.Satisfied(id, done) {
		return &DependencyNotSatisfiedError{TaskID: id, Missing: t.graph.Missing(id, done)}
	}
	t.doc.setStatus(id, StatusInProgress)
	return nil
}

// Complete transitions a task InProgress -> Complete.
//
// The tracker trusts the caller's assertion that implementation and
// validation succeeded, but refuses to let a task complete silently:
// the ledger must hold at least one change record or an explicit
// no-changes acknowledgment for the task, else
// *MissingAcknowledgmentError. Completing a Complete task returns
// *TaskAlreadyCompleteError and appends nothing.
func (t *Tracker) Complete(id string) error {
	if t.doc.Finalized() {
		return ErrDocumentFinalized
	}
	if t.plan.TaskByID(id) == nil {
		return &NoSuchTaskError{TaskID: id}
	}
	switch t.doc.Status(id) {
	case StatusComplete:
		return &TaskAlreadyCompleteError{TaskID: id}
	case StatusPending:
		return &TaskNotStartedError{TaskID: id}
	}
	if len(t.doc.ChangesByTask(id)) == 0 && !t.doc.hasAck(id) {
		return &MissingAcknowledgmentError{TaskID: id}
	}
	t.doc.setStatus(id, StatusComplete)
	return nil
}
