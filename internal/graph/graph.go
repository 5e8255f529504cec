// Package graph builds the task dependency DAG for a plan and answers
// scheduling questions about it.
//
// The graph is rejected outright when dependsOn edges contain a cycle —
// no partial graph is ever exposed. Ready ordering is deterministic:
// tasks eligible at the same time come back in plan-declaration order
// (phase ordinal, then position within the phase), so absent explicit
// dependencies work proceeds through the plan top to bottom.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/waymark-dev/waymark/internal/plan"
)

// CyclicDependencyError reports a dependency cycle in a plan. The Tasks
// field lists every task id involved in (or downstream of) a cycle.
type CyclicDependencyError struct {
	Tasks []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency among tasks: %s", strings.Join(e.Tasks, ", "))
}

// Graph is the immutable dependency structure for one plan.
type Graph struct {
	plan *plan.Plan
	deps map[string][]string
}

// Build constructs the graph and verifies it is acyclic via Kahn's
// algorithm. Fails with *CyclicDependencyError otherwise.
func Build(p *plan.Plan) (*Graph, error) {
	deps := make(map[string][]string)
	indegree := make(map[string]int)
	dependents := make(map[string][]string)

	for _, t := range p.Tasks() {
		deps[t.ID] = append([]string(nil), t.DependsOn...)
		indegree[t.ID] = len(t.DependsOn)
		for _, dep := range t.DependsOn {
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	// Kahn's algorithm: repeatedly remove nodes with no remaining
	// dependencies. Anything left over sits on or behind a cycle.
	var queue []string
	for id, n := range indegree {
		if n == 0 {
			queue = append(queue, id)
		}
	}
	removed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		removed++
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if removed != len(indegree) {
		var stuck []string
		for id, n := range indegree {
			if n > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, &CyclicDependencyError{Tasks: stuck}
	}

	return &Graph{plan: p, deps: deps}, nil
}

// Ready returns the ordered sequence of task ids that may be worked
// next. done holds the ids of Complete tasks; active is the id of the
// task currently InProgress, or "".
//
// An interrupted InProgress task is always offered first so resumption
// after an aborted session is unambiguous. After that come Pending tasks
// whose dependencies are all Complete, in declaration order.
func (g *Graph) Ready(done map[string]bool, active string) []string {
	var out []string
	if active != "" {
		out = append(out, active)
	}
	for _, t := range g.plan.Tasks() {
		if t.ID == active || done[t.ID] {
			continue
		}
		if g.satisfied(t.ID, done) {
			out = append(out, t.ID)
		}
	}
	return out
}

// Satisfied reports whether every dependency of the given task is done.
func (g *Graph) Satisfied(id string, done map[string]bool) bool {
	return g.satisfied(id, done)
}

// Missing returns the dependencies of id that are not yet done, in
// declaration order of the dependency list.
func (g *Graph) Missing(id string, done map[string]bool) []string {
	var missing []string
	for _, dep := range g.deps[id] {
		if !done[dep] {
			missing = append(missing, dep)
		}
	}
	return missing
}

func (g *Graph) satisfied(id string, done map[string]bool) bool {
	for _, dep := range g.deps[id] {
		if !done[dep] {
			return false
		}
	}
	return true
}
