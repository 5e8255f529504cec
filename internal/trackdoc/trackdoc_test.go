package trackdoc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/waymark-dev/waymark/internal/track"
)

// --- Helper ---

const stamp = "2026-03-01T10:00:00Z"

func testDocument() *track.Document {
	return &track.Document{
		PlanRef:   "plans/demo.md",
		PlanName:  "Demo Rollout",
		SessionID: "sess-1",
		Items: []track.ChecklistItem{
			{TaskID: "T1", Description: "First", Status: track.StatusComplete, TicketRef: "https://issues.example.com/WAY-1"},
			{TaskID: "T2", Description: "Second", Status: track.StatusPending},
			{TaskID: "T3", Description: "Third", Status: track.StatusPending},
		},
		Ledger: []track.ChangeRecord{
			{Seq: 1, TaskID: "T1", Path: "a.go", Kind: track.KindAdded, Summary: "new file", RecordedAt: stamp},
			{Seq: 2, TaskID: "T1", Path: "b.go", Kind: track.KindModified, Summary: "update handler", RecordedAt: stamp},
			{Seq: 3, TaskID: "T1", Path: "a.go", Kind: track.KindModified, Summary: "fix typo", RecordedAt: stamp},
		},
		Acks: []track.Acknowledgment{
			{TaskID: "T2", Note: "verification only", AckedAt: stamp},
		},
		Divergences: []track.Divergence{
			{TaskID: "T1", RecordSeq: 2, Reason: "used a different handler shape", NotedAt: stamp},
			{TaskID: "T3", Reason: "descoped the retry logic", Blocking: true, NotedAt: stamp},
		},
		Notes: "Midway decision: keep the old config format.",
	}
}

// --- Round trip ---

func TestRoundTrip_PreservesDocument(t *testing.T) {
	d := testDocument()
	got, err := Parse(Render(d))
	if err != nil {
		t.Fatalf("Parse(Render) failed: %v", err)
	}

	if got.PlanRef != d.PlanRef || got.PlanName != d.PlanName || got.SessionID != d.SessionID {
		t.Errorf("header mismatch: %+v", got)
	}
	if len(got.Items) != 3 || got.Items[0].Status != track.StatusComplete || got.Items[1].Status != track.StatusPending {
		t.Errorf("items mismatch: %+v", got.Items)
	}
	if got.Items[0].TicketRef != d.Items[0].TicketRef {
		t.Errorf("ticket ref = %q", got.Items[0].TicketRef)
	}
	if len(got.Ledger) != 3 {
		t.Fatalf("ledger length = %d, want 3", len(got.Ledger))
	}
	for i, rec := range got.Ledger {
		if rec != d.Ledger[i] {
			t.Errorf("ledger[%d] = %+v, want %+v", i, rec, d.Ledger[i])
		}
	}
	if len(got.Acks) != 1 || got.Acks[0] != d.Acks[0] {
		t.Errorf("acks mismatch: %+v", got.Acks)
	}
	if len(got.Divergences) != 2 || got.Divergences[0] != d.Divergences[0] || got.Divergences[1] != d.Divergences[1] {
		t.Errorf("divergences mismatch: %+v", got.Divergences)
	}
	if got.Notes != d.Notes {
		t.Errorf("notes = %q, want %q", got.Notes, d.Notes)
	}
}

func TestRoundTrip_Canonical(t *testing.T) {
	d := testDocument()
	first := Render(d)
	parsed, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if second := Render(parsed); second != first {
		t.Errorf("render is not canonical:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestRoundTrip_FinalizedDocument(t *testing.T) {
	d := testDocument()
	d.Items[1].Status = track.StatusComplete
	d.Items[2].Status = track.StatusComplete
	d.Divergences[1].Blocking = false
	d.Summary = &track.ReleaseSummary{
		FilesAdded:     1,
		FilesModified:  2,
		Dependencies:   "none",
		Deployment:     "restart the worker",
		AllCriteriaMet: true,
	}

	got, err := Parse(Render(d))
	if err != nil {
		t.Fatalf("Parse(Render) failed: %v", err)
	}
	if got.Summary == nil {
		t.Fatal("summary lost in round trip")
	}
	if *got.Summary != *d.Summary {
		t.Errorf("summary = %+v, want %+v", *got.Summary, *d.Summary)
	}
	if !got.Finalized() {
		t.Error("parsed document should be finalized")
	}
}

// --- Render details ---

func TestRender_InProgressPersistsAsUnchecked(t *testing.T) {
	d := testDocument()
	d.Items[1].Status = track.StatusInProgress
	text := Render(d)
	if strings.Contains(text, "[>]") || strings.Contains(text, "in_progress") {
		t.Error("in_progress must not appear in the persisted form")
	}
	if !strings.Contains(text, "- [ ] T2: Second") {
		t.Error("in-progress task should render as an unchecked box")
	}
}

func TestRender_StatusLine(t *testing.T) {
	d := testDocument()
	if !strings.Contains(Render(d), "Status: In Progress") {
		t.Error("incomplete document should carry Status: In Progress")
	}
	for i := range d.Items {
		d.Items[i].Status = track.StatusComplete
	}
	if !strings.Contains(Render(d), "Status: Complete") {
		t.Error("all-complete document should carry Status: Complete")
	}
}

func TestRender_OmitsEmptyKindGroups(t *testing.T) {
	d := testDocument()
	if strings.Contains(Render(d), removedHeading) {
		t.Error("empty Removed group should be omitted")
	}
}

func TestRoundTrip_BlockingFlagOutsideReason(t *testing.T) {
	d := testDocument()
	// A reason that ends in the literal flag text must survive a reload
	// without being promoted to blocking.
	d.Divergences = []track.Divergence{
		{TaskID: "T1", Reason: "kept the check non [blocking]", NotedAt: stamp},
		{TaskID: "T3", Reason: "descoped", Blocking: true, NotedAt: stamp},
	}

	got, err := Parse(Render(d))
	if err != nil {
		t.Fatalf("Parse(Render) failed: %v", err)
	}
	if got.Divergences[0].Blocking || got.Divergences[0].Reason != d.Divergences[0].Reason {
		t.Errorf("divergence[0] = %+v, want unchanged non-blocking", got.Divergences[0])
	}
	if !got.Divergences[1].Blocking || got.Divergences[1].Reason != "descoped" {
		t.Errorf("divergence[1] = %+v, want blocking preserved", got.Divergences[1])
	}
}

// --- Parse failures ---

func TestParse_FailsClosedOnGarbage(t *testing.T) {
	_, err := Parse("not a tracking document\n")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Errorf("err = %v, want *ParseError", err)
	}
}

func TestParse_TruncatedDocument(t *testing.T) {
	text := "# TODO: X\nPlan: p.md\nSession: s\nStatus: In Progress\n\n## Task Checklist\n- [ ] T1: A [Create Ticket]()\n"
	_, err := Parse(text)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestParse_NonContiguousLedger(t *testing.T) {
	d := testDocument()
	d.Ledger[2].Seq = 9
	_, err := Parse(Render(d))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if !strings.Contains(perr.Detail, "contiguous") {
		t.Errorf("detail = %q", perr.Detail)
	}
}

func TestParse_StatusDisagreesWithChecklist(t *testing.T) {
	d := testDocument()
	text := strings.Replace(Render(d), "Status: In Progress", "Status: Complete", 1)
	_, err := Parse(text)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestParse_ChangeForUnknownTask(t *testing.T) {
	d := testDocument()
	d.Ledger[0].TaskID = "T9"
	_, err := Parse(Render(d))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestParse_DuplicateChecklistTask(t *testing.T) {
	d := testDocument()
	d.Items[2].TaskID = "T1"
	d.Items[2].Status = track.StatusComplete
	_, err := Parse(Render(d))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestParse_DuplicateHeaderField(t *testing.T) {
	cases := []struct {
		name string
		dup  string
	}{
		{"plan", "Plan: other.md"},
		{"session", "Session: sess-2"},
		{"status agreeing", "Status: In Progress"},
		{"status conflicting", "Status: Complete"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := strings.Replace(Render(testDocument()), "Session: sess-1", "Session: sess-1\n"+tc.dup, 1)
			_, err := Parse(text)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if !strings.Contains(perr.Detail, "duplicate") {
				t.Errorf("detail = %q", perr.Detail)
			}
		})
	}
}

func TestParse_SectionOutOfOrder(t *testing.T) {
	text := "# TODO: X\nPlan: p.md\nSession: s\nStatus: In Progress\n\n## Changes\n\n## Task Checklist\n- [ ] T1: A [Create Ticket]()\n\n## Notes\n"
	_, err := Parse(text)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

// --- Save / Load ---

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TODO.md")
	d := testDocument()
	if err := Save(path, d); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.PlanName != d.PlanName || len(got.Ledger) != len(d.Ledger) {
		t.Errorf("loaded document = %s", got)
	}
}

func TestSave_ReleasesLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TODO.md")
	d := testDocument()
	if err := Save(path, d); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Error("lock file left behind after Save")
	}
	if err := Save(path, d); err != nil {
		t.Errorf("second Save failed: %v", err)
	}
}

func TestSave_RefusesHeldLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TODO.md")
	if err := os.WriteFile(path+".lock", nil, 0o644); err != nil {
		t.Fatal(err)
	}
	err := Save(path, testDocument())
	var lerr *LockError
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want *LockError", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("document must not be written while locked")
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TODO.md")
	if err := Save(path, testDocument()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "TODO.md" {
		t.Errorf("directory holds %d entries, want only TODO.md", len(entries))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.md")); err == nil {
		t.Fatal("expected an error for a missing document")
	}
}
