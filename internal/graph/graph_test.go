package graph

import (
	"errors"
	"testing"

	"github.com/waymark-dev/waymark/internal/plan"
)

// --- Helper ---

func testPlan(t *testing.T, src string) *plan.Plan {
	t.Helper()
	p, err := plan.Parse("test.md", []byte(src))
	if err != nil {
		t.Fatalf("parsing test plan: %v", err)
	}
	return p
}

const chainSource = `# Chain

## Phase: Build
- T1: First
- T2: Second (after: T1)
- T3: Independent
`

// --- Build ---

func TestBuild_AcyclicPlan(t *testing.T) {
	if _, err := Build(testPlan(t, chainSource)); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
}

func TestBuild_DirectCycle(t *testing.T) {
	src := "# P\n\n## Phase: One\n- T1: A (after: T2)\n- T2: B (after: T1)\n"
	_, err := Build(testPlan(t, src))
	var cerr *CyclicDependencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want *CyclicDependencyError", err)
	}
	if len(cerr.Tasks) != 2 {
		t.Errorf("cycle tasks = %v, want both of T1, T2", cerr.Tasks)
	}
}

func TestBuild_SelfCycle(t *testing.T) {
	src := "# P\n\n## Phase: One\n- T1: A (after: T1)\n"
	_, err := Build(testPlan(t, src))
	var cerr *CyclicDependencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want *CyclicDependencyError", err)
	}
}

func TestBuild_CycleListsDownstreamTasks(t *testing.T) {
	// T3 is not in the cycle but can never run; it must be reported too.
	src := "# P\n\n## Phase: One\n- T1: A (after: T2)\n- T2: B (after: T1)\n- T3: C (after: T2)\n"
	_, err := Build(testPlan(t, src))
	var cerr *CyclicDependencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want *CyclicDependencyError", err)
	}
	if len(cerr.Tasks) != 3 {
		t.Errorf("cycle tasks = %v, want T1, T2, T3", cerr.Tasks)
	}
}

// --- Ready ---

func TestReady_InitialState(t *testing.T) {
	g, _ := Build(testPlan(t, chainSource))
	got := g.Ready(map[string]bool{}, "")
	want := []string{"T1", "T3"}
	assertIDs(t, got, want)
}

func TestReady_ActiveTaskComesFirst(t *testing.T) {
	g, _ := Build(testPlan(t, chainSource))
	got := g.Ready(map[string]bool{}, "T3")
	want := []string{"T3", "T1"}
	assertIDs(t, got, want)
}

func TestReady_UnblocksAfterDependencyDone(t *testing.T) {
	g, _ := Build(testPlan(t, chainSource))
	got := g.Ready(map[string]bool{"T1": true}, "")
	want := []string{"T2", "T3"}
	assertIDs(t, got, want)
}

func TestReady_AllDone(t *testing.T) {
	g, _ := Build(testPlan(t, chainSource))
	got := g.Ready(map[string]bool{"T1": true, "T2": true, "T3": true}, "")
	if len(got) != 0 {
		t.Errorf("Ready = %v, want empty", got)
	}
}

// --- Satisfied / Missing ---

func TestSatisfied(t *testing.T) {
	g, _ := Build(testPlan(t, chainSource))
	if g.Satisfied("T2", map[string]bool{}) {
		t.Error("T2 should not be satisfied with nothing done")
	}
	if !g.Satisfied("T2", map[string]bool{"T1": true}) {
		t.Error("T2 should be satisfied once T1 is done")
	}
	if !g.Satisfied("T3", map[string]bool{}) {
		t.Error("T3 has no dependencies and is always satisfied")
	}
}

func TestMissing(t *testing.T) {
	src := "# P\n\n## Phase: One\n- T1: A\n- T2: B\n- T3: C (after: T1, T2)\n"
	g, _ := Build(testPlan(t, src))
	got := g.Missing("T3", map[string]bool{"T1": true})
	assertIDs(t, got, []string{"T2"})
}

func assertIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}
