package plan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validSource = `---
plan: Demo Rollout
tickets: https://issues.example.com/
---
# Demo Rollout

## Phase: Build
- T1: Wire the config loader
- T2: Add the storage layer (after: T1) [WAY-12]()

## Phase: Verify
- T3: Smoke test the pipeline (after: T1, T2)
`

// --- Parse: valid plans ---

func TestParse_ValidPlan(t *testing.T) {
	p, err := Parse("demo.md", []byte(validSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Name != "Demo Rollout" {
		t.Errorf("Name = %q, want %q", p.Name, "Demo Rollout")
	}
	if len(p.Phases) != 2 {
		t.Fatalf("got %d phases, want 2", len(p.Phases))
	}
	if p.Phases[0].Name != "Build" || p.Phases[1].Name != "Verify" {
		t.Errorf("phase names = %q, %q", p.Phases[0].Name, p.Phases[1].Name)
	}
	if p.TaskCount() != 3 {
		t.Errorf("TaskCount = %d, want 3", p.TaskCount())
	}
}

func TestParse_DependencyList(t *testing.T) {
	p, err := Parse("demo.md", []byte(validSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	t3 := p.TaskByID("T3")
	if t3 == nil {
		t.Fatal("T3 not found")
	}
	if len(t3.DependsOn) != 2 || t3.DependsOn[0] != "T1" || t3.DependsOn[1] != "T2" {
		t.Errorf("T3.DependsOn = %v, want [T1 T2]", t3.DependsOn)
	}
	if t3.Description != "Smoke test the pipeline" {
		t.Errorf("T3.Description = %q", t3.Description)
	}
}

func TestParse_TicketBaseResolution(t *testing.T) {
	p, err := Parse("demo.md", []byte(validSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	t2 := p.TaskByID("T2")
	want := "https://issues.example.com/WAY-12"
	if t2.TicketRef != want {
		t.Errorf("T2.TicketRef = %q, want %q", t2.TicketRef, want)
	}
}

func TestParse_ExplicitTicketURLWins(t *testing.T) {
	src := "# P\n\n## Phase: One\n- T1: Do it [bug](https://elsewhere.example.com/9)\n"
	p, err := Parse("p.md", []byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := p.TaskByID("T1").TicketRef; got != "https://elsewhere.example.com/9" {
		t.Errorf("TicketRef = %q", got)
	}
}

func TestParse_TitleFallbackWithoutFrontmatter(t *testing.T) {
	src := "# Fallback Name\n\n## Phase: One\n- T1: Something\n"
	p, err := Parse("p.md", []byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Name != "Fallback Name" {
		t.Errorf("Name = %q, want %q", p.Name, "Fallback Name")
	}
}

func TestParse_DeclarationOrder(t *testing.T) {
	p, err := Parse("demo.md", []byte(validSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	var ids []string
	for _, task := range p.Tasks() {
		ids = append(ids, task.ID)
	}
	want := []string{"T1", "T2", "T3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Tasks order = %v, want %v", ids, want)
		}
	}
}

// --- Parse: malformed plans ---

func TestParse_NoPhases(t *testing.T) {
	_, err := Parse("p.md", []byte("# Just a title\n"))
	if !errors.Is(err, ErrNoPhases) {
		t.Errorf("err = %v, want ErrNoPhases", err)
	}
}

func TestParse_EmptyPhase(t *testing.T) {
	src := "# P\n\n## Phase: One\n\n## Phase: Two\n- T1: Something\n"
	_, err := Parse("p.md", []byte(src))
	if !errors.Is(err, ErrEmptyPhase) {
		t.Errorf("err = %v, want ErrEmptyPhase", err)
	}
}

func TestParse_TrailingEmptyPhase(t *testing.T) {
	src := "# P\n\n## Phase: One\n- T1: Something\n\n## Phase: Two\n"
	_, err := Parse("p.md", []byte(src))
	if !errors.Is(err, ErrEmptyPhase) {
		t.Errorf("err = %v, want ErrEmptyPhase", err)
	}
}

func TestParse_DuplicateTaskID(t *testing.T) {
	src := "# P\n\n## Phase: One\n- T1: First\n- T1: Again\n"
	_, err := Parse("p.md", []byte(src))
	if !errors.Is(err, ErrDuplicateTaskID) {
		t.Errorf("err = %v, want ErrDuplicateTaskID", err)
	}
}

func TestParse_UnknownDependency(t *testing.T) {
	src := "# P\n\n## Phase: One\n- T1: Something (after: T9)\n"
	_, err := Parse("p.md", []byte(src))
	if !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("err = %v, want ErrUnknownDependency", err)
	}
}

func TestParse_TaskOutsidePhase(t *testing.T) {
	src := "# P\n- T1: Something\n"
	_, err := Parse("p.md", []byte(src))
	if !errors.Is(err, ErrBadSyntax) {
		t.Errorf("err = %v, want ErrBadSyntax", err)
	}
}

func TestParse_UnexpectedLine(t *testing.T) {
	src := "# P\n\n## Phase: One\n- T1: Something\nprose paragraph\n"
	_, err := Parse("p.md", []byte(src))
	var merr *MalformedPlanError
	if !errors.As(err, &merr) {
		t.Fatalf("err = %v, want *MalformedPlanError", err)
	}
	if merr.Line != 5 {
		t.Errorf("Line = %d, want 5", merr.Line)
	}
}

func TestParse_EmptyAfterClause(t *testing.T) {
	src := "# P\n\n## Phase: One\n- T1: Something (after: )\n"
	_, err := Parse("p.md", []byte(src))
	if !errors.Is(err, ErrBadSyntax) {
		t.Errorf("err = %v, want ErrBadSyntax", err)
	}
}

func TestParse_UnterminatedFrontmatter(t *testing.T) {
	src := "---\nplan: X\n# P\n"
	_, err := Parse("p.md", []byte(src))
	if !errors.Is(err, ErrBadSyntax) {
		t.Errorf("err = %v, want ErrBadSyntax", err)
	}
}

func TestParse_UnknownFrontmatterField(t *testing.T) {
	src := "---\nplan: X\nbogus: y\n---\n# P\n\n## Phase: One\n- T1: A\n"
	_, err := Parse("p.md", []byte(src))
	if !errors.Is(err, ErrBadSyntax) {
		t.Errorf("err = %v, want ErrBadSyntax", err)
	}
}

func TestParse_DuplicateTitle(t *testing.T) {
	src := "# P\n# Q\n\n## Phase: One\n- T1: A\n"
	_, err := Parse("p.md", []byte(src))
	if !errors.Is(err, ErrBadSyntax) {
		t.Errorf("err = %v, want ErrBadSyntax", err)
	}
}

// --- ID derivation ---

func TestDeriveID_StableAcrossParses(t *testing.T) {
	a, err := Parse("demo.md", []byte(validSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	b, err := Parse("demo.md", []byte(validSource))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.ID != b.ID {
		t.Errorf("same bytes produced different IDs: %q vs %q", a.ID, b.ID)
	}
}

func TestDeriveID_ChangesWithContent(t *testing.T) {
	a, _ := Parse("demo.md", []byte(validSource))
	b, err := Parse("demo.md", []byte(validSource+"- T4: Extra (after: T3)\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.ID == b.ID {
		t.Error("different bytes produced the same ID")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"My Plan v2!", "my-plan-v2"},
		{"already-fine", "already-fine"},
		{"  spaced  out  ", "spaced-out"},
	}
	for _, c := range cases {
		if got := slugify(c.in); got != c.want {
			t.Errorf("slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// --- Load ---

func TestLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.md")
	if err := os.WriteFile(path, []byte(validSource), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Source != path {
		t.Errorf("Source = %q, want %q", p.Source, path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.md"))
	if err == nil {
		t.Fatal("expected an error for a missing plan file")
	}
}

func TestTaskByID_Unknown(t *testing.T) {
	p, _ := Parse("demo.md", []byte(validSource))
	if p.TaskByID("T99") != nil {
		t.Error("TaskByID(T99) should be nil")
	}
}
