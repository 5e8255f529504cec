// Package plan loads and represents immutable execution plans.
//
// A plan is a markdown document with an optional YAML frontmatter block,
// a title, and one or more phases, each holding an ordered list of task
// lines. Once loaded, a Plan value is never mutated — re-parsing a
// changed source produces a new Plan, so loading is idempotent and safe
// to repeat for verification.
package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Plan is an immutable definition of phased work, loaded once per session.
type Plan struct {
	// ID is a stable identifier derived from the source filename and a
	// content hash, so the same bytes always produce the same ID.
	ID     string
	Name   string
	Source string
	Phases []*Phase

	// TicketBase, when set via frontmatter, is prepended to bare ticket
	// references to form links.
	TicketBase string

	byID map[string]*Task
}

// Phase is a named, ordered grouping of tasks. Completion of a phase is
// always derived from its tasks, never stored.
type Phase struct {
	Name    string
	Ordinal int
	Tasks   []*Task
}

// Task is the unit of work. A Task belongs to exactly one Phase and is
// created at parse time; only its tracked status changes during a session,
// and that status lives outside this package.
type Task struct {
	ID          string
	Description string
	TicketRef   string
	DependsOn   []string

	// PhaseOrdinal and Position locate the task for deterministic
	// declaration-order scheduling.
	PhaseOrdinal int
	Position     int
}

// Load reads and parses a plan from disk. The same file bytes always
// yield an equal Plan value.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %q: %w", path, err)
	}
	return Parse(path, data)
}

// TaskByID returns the task with the given id, or nil if unknown.
func (p *Plan) TaskByID(id string) *Task {
	return p.byID[id]
}

// Tasks returns every task in declaration order (phase order, then
// position within the phase).
func (p *Plan) Tasks() []*Task {
	var out []*Task
	for _, ph := range p.Phases {
		out = append(out, ph.Tasks...)
	}
	return out
}

// TaskCount returns the total number of tasks across all phases.
func (p *Plan) TaskCount() int {
	n := 0
	for _, ph := range p.Phases {
		n += len(ph.Tasks)
	}
	return n
}

// deriveID builds the plan identifier from the source filename stem and
// the first 8 hex chars of the content hash.
func deriveID(source string, data []byte) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s-%s", slugify(stem), hex.EncodeToString(sum[:])[:8])
}

// slugify lowercases and replaces non-alphanumeric runs with single dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
