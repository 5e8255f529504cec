package validate

import (
	"errors"
	"testing"

	"github.com/waymark-dev/waymark/internal/graph"
	"github.com/waymark-dev/waymark/internal/plan"
	"github.com/waymark-dev/waymark/internal/track"
)

// --- Helper ---

const validateSource = `# Validate Test

## Phase: Build
- T1: First
- T2: Second (after: T1)
`

func completedFixture(t *testing.T) (*plan.Plan, *track.Document) {
	t.Helper()
	p, err := plan.Parse("test.md", []byte(validateSource))
	if err != nil {
		t.Fatalf("parsing test plan: %v", err)
	}
	g, err := graph.Build(p)
	if err != nil {
		t.Fatalf("building graph: %v", err)
	}
	d := track.NewDocument(p, "test.md", "sess-1")
	tr := track.NewTracker(p, g, d)
	for _, id := range []string{"T1", "T2"} {
		if err := tr.Start(id); err != nil {
			t.Fatalf("starting %s: %v", id, err)
		}
		if _, err := tr.Record(id, id+".go", track.KindAdded, "work"); err != nil {
			t.Fatalf("recording for %s: %v", id, err)
		}
		if err := tr.Complete(id); err != nil {
			t.Fatalf("completing %s: %v", id, err)
		}
	}
	return p, d
}

func failCheck(t *testing.T, err error, want Check) {
	t.Helper()
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("err = %v, want *Failure", err)
	}
	if f.Check != want {
		t.Errorf("failed check = %s, want %s", f.Check, want)
	}
}

// --- Run ---

func TestRun_AllChecksPass(t *testing.T) {
	p, d := completedFixture(t)
	sum, err := Run(p, d, Options{Deployment: "restart worker"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.FilesAdded != 2 || sum.FilesModified != 0 || sum.FilesRemoved != 0 {
		t.Errorf("summary counts = %+v", sum)
	}
	if sum.Dependencies != "none" {
		t.Errorf("Dependencies = %q, want default 'none'", sum.Dependencies)
	}
	if sum.Deployment != "restart worker" {
		t.Errorf("Deployment = %q", sum.Deployment)
	}
	if !sum.AllCriteriaMet {
		t.Error("AllCriteriaMet should be true")
	}
	if !d.Finalized() {
		t.Error("passing validation must finalize the document")
	}
}

func TestRun_RejectsMultilineReleaseNotes(t *testing.T) {
	p, d := completedFixture(t)
	var werr *track.InvalidFieldError
	if _, err := Run(p, d, Options{Deployment: "restart\nthen pray"}); !errors.As(err, &werr) {
		t.Fatalf("err = %v, want *InvalidFieldError", err)
	}
	if d.Finalized() {
		t.Error("rejected notes must not finalize the document")
	}
}

func TestRun_IncompleteTask(t *testing.T) {
	p, d := completedFixture(t)
	d.Items[1].Status = track.StatusPending
	_, err := Run(p, d, Options{})
	failCheck(t, err, CheckTasksComplete)
	if d.Finalized() {
		t.Error("failed validation must not finalize the document")
	}
}

func TestRun_CompletedWithoutChanges(t *testing.T) {
	p, d := completedFixture(t)
	// Strip T2's ledger entries, simulating a hand-edited document.
	var kept []track.ChangeRecord
	for _, rec := range d.Ledger {
		if rec.TaskID != "T2" {
			kept = append(kept, rec)
		}
	}
	d.Ledger = kept
	_, err := Run(p, d, Options{})
	failCheck(t, err, CheckChangesRecorded)
}

func TestRun_AckSatisfiesChangesCheck(t *testing.T) {
	p, d := completedFixture(t)
	d.Ledger = d.Ledger[:1] // drop T2's record
	d.Acks = append(d.Acks, track.Acknowledgment{TaskID: "T2", Note: "no-op task", AckedAt: "2026-03-01T10:00:00Z"})
	if _, err := Run(p, d, Options{}); err != nil {
		t.Errorf("Run failed: %v", err)
	}
}

func TestRun_BlockingDivergence(t *testing.T) {
	p, d := completedFixture(t)
	d.Divergences = append(d.Divergences, track.Divergence{
		TaskID: "T1", Reason: "descoped", Blocking: true, NotedAt: "2026-03-01T10:00:00Z",
	})
	_, err := Run(p, d, Options{})
	failCheck(t, err, CheckNoBlocking)
}

func TestRun_InformationalDivergencePasses(t *testing.T) {
	p, d := completedFixture(t)
	d.Divergences = append(d.Divergences, track.Divergence{
		TaskID: "T1", Reason: "renamed a helper", NotedAt: "2026-03-01T10:00:00Z",
	})
	if _, err := Run(p, d, Options{}); err != nil {
		t.Errorf("Run failed: %v", err)
	}
}

func TestRun_CheckOrder(t *testing.T) {
	// An incomplete task alongside a blocking divergence: the task check
	// fires first.
	p, d := completedFixture(t)
	d.Items[0].Status = track.StatusPending
	d.Divergences = append(d.Divergences, track.Divergence{
		TaskID: "T1", Reason: "descoped", Blocking: true, NotedAt: "2026-03-01T10:00:00Z",
	})
	_, err := Run(p, d, Options{})
	failCheck(t, err, CheckTasksComplete)
}

func TestRun_IdempotentWhenFinalized(t *testing.T) {
	p, d := completedFixture(t)
	first, err := Run(p, d, Options{Deployment: "step one"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(p, d, Options{Deployment: "different"})
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Error("repeat Run must return the already-attached summary")
	}
}
