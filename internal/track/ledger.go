package track

// --- Append-only change ledger ---
//
// ChangeRecords are never overwritten or merged: a path may appear many
// times (Added, then Modified, then Removed) and every record is kept in
// insertion order. Queries return filtered views that preserve that
// order and never touch the underlying log.

import (
	"fmt"
	"strings"
)

// Record appends a ChangeRecord for the task currently being worked.
// Fails with *UnknownTaskError when the task is not InProgress (a
// Complete task yields *TaskAlreadyCompleteError instead, since that
// unit of work is closed).
func (t *Tracker) Record(id, path string, kind ChangeKind, summary string) (*ChangeRecord, error) {
	if err := t.recordable(id); err != nil {
		return nil, err
	}
	if err := ValidateKind(kind); err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	summary = strings.TrimSpace(summary)
	if err := validPath(path); err != nil {
		return nil, err
	}
	if err := validText("summary", summary); err != nil {
		return nil, err
	}
	rec := ChangeRecord{
		Seq:        len(t.doc.Ledger) + 1,
		TaskID:     id,
		Path:       path,
		Kind:       kind,
		Summary:    summary,
		RecordedAt: stamp(),
	}
	t.doc.Ledger = append(t.doc.Ledger, rec)
	return &t.doc.Ledger[len(t.doc.Ledger)-1], nil
}

// AcknowledgeNoChanges appends an explicit empty-change acknowledgment
// for the task currently being worked. It is subject to the same gating
// as Record and is idempotent per task.
func (t *Tracker) AcknowledgeNoChanges(id, note string) (*Acknowledgment, error) {
	if err := t.recordable(id); err != nil {
		return nil, err
	}
	if t.doc.hasAck(id) {
		for i := range t.doc.Acks {
			if t.doc.Acks[i].TaskID == id {
				return &t.doc.Acks[i], nil
			}
		}
	}
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		trimmed = "no file changes"
	}
	if err := validText("note", trimmed); err != nil {
		return nil, err
	}
	ack := Acknowledgment{TaskID: id, Note: trimmed, AckedAt: stamp()}
	t.doc.Acks = append(t.doc.Acks, ack)
	return &t.doc.Acks[len(t.doc.Acks)-1], nil
}

// Annotate attaches a divergence note to a task (recordSeq 0) or to a
// specific change record. Annotations are append-only and never
// silently dropped; a blocking divergence later fails completion
// validation until the operator resolves it.
func (t *Tracker) Annotate(taskID string, recordSeq int, reason string, blocking bool) (*Divergence, error) {
	if t.doc.Finalized() {
		return nil, ErrDocumentFinalized
	}
	if t.plan.TaskByID(taskID) == nil {
		return nil, &NoSuchTaskError{TaskID: taskID}
	}
	if recordSeq != 0 {
		if recordSeq < 1 || recordSeq > len(t.doc.Ledger) {
			return nil, fmt.Errorf("no ledger record #%d", recordSeq)
		}
		if rec := t.doc.Ledger[recordSeq-1]; rec.TaskID != taskID {
			return nil, fmt.Errorf("ledger record #%d belongs to task %q, not %q", recordSeq, rec.TaskID, taskID)
		}
	}
	reason = strings.TrimSpace(reason)
	if err := validText("reason", reason); err != nil {
		return nil, err
	}
	div := Divergence{
		TaskID:    taskID,
		RecordSeq: recordSeq,
		Reason:    reason,
		Blocking:  blocking,
		NotedAt:   stamp(),
	}
	t.doc.Divergences = append(t.doc.Divergences, div)
	return &t.doc.Divergences[len(t.doc.Divergences)-1], nil
}

// validPath gates the path field: the document's change-entry line
// holds the path as a single whitespace-free token.
func validPath(path string) error {
	if path == "" {
		return &InvalidFieldError{Field: "path", Value: path, Detail: "must not be empty"}
	}
	if strings.ContainsAny(path, " \t\n\r") {
		return &InvalidFieldError{Field: "path", Value: path, Detail: "must not contain whitespace"}
	}
	return nil
}

// validText gates free-text fields that are persisted as one document
// line each.
func validText(field, text string) error {
	if strings.ContainsAny(text, "\n\r") {
		return &InvalidFieldError{Field: field, Value: text, Detail: "must not contain line breaks"}
	}
	return nil
}

// recordable gates ledger appends: the document must not be finalized
// and the task must be InProgress.
func (t *Tracker) recordable(id string) error {
	if t.doc.Finalized() {
		return ErrDocumentFinalized
	}
	if t.plan.TaskByID(id) == nil {
		return &UnknownTaskError{TaskID: id}
	}
	switch st := t.doc.Status(id); st {
	case StatusInProgress:
		return nil
	case StatusComplete:
		return &TaskAlreadyCompleteError{TaskID: id}
	default:
		return &UnknownTaskError{TaskID: id, Status: st}
	}
}

// --- Ledger queries ---

// ChangesByKind returns the ledger entries of one kind, insertion order
// preserved.
func (d *Document) ChangesByKind(kind ChangeKind) []ChangeRecord {
	var out []ChangeRecord
	for _, rec := range d.Ledger {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// ChangesByTask returns the ledger entries recorded against one task,
// insertion order preserved.
func (d *Document) ChangesByTask(id string) []ChangeRecord {
	var out []ChangeRecord
	for _, rec := range d.Ledger {
		if rec.TaskID == id {
			out = append(out, rec)
		}
	}
	return out
}

// ChangesByPath returns the ledger entries touching one path, insertion
// order preserved.
func (d *Document) ChangesByPath(path string) []ChangeRecord {
	var out []ChangeRecord
	for _, rec := range d.Ledger {
		if rec.Path == path {
			out = append(out, rec)
		}
	}
	return out
}

// hasAck reports whether the task has an explicit empty-change
// acknowledgment.
func (d *Document) hasAck(id string) bool {
	for _, ack := range d.Acks {
		if ack.TaskID == id {
			return true
		}
	}
	return false
}

// Acknowledged reports whether the task satisfied the change-recording
// requirement: at least one ledger record or an explicit acknowledgment.
func (d *Document) Acknowledged(id string) bool {
	return len(d.ChangesByTask(id)) > 0 || d.hasAck(id)
}

// BlockingDivergences returns the divergences flagged blocking, in
// annotation order.
func (d *Document) BlockingDivergences() []Divergence {
	var out []Divergence
	for _, div := range d.Divergences {
		if div.Blocking {
			out = append(out, div)
		}
	}
	return out
}
