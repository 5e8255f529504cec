package plan

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatter is the optional YAML block at the top of a plan source.
type frontmatter struct {
	Plan    string `yaml:"plan"`
	Tickets string `yaml:"tickets"`
}

var (
	taskLineRe = regexp.MustCompile(`^- ([A-Za-z][A-Za-z0-9_-]*): (.+)$`)
	ticketRe   = regexp.MustCompile(`\s*\[([^\[\]]+)\]\(([^()]*)\)$`)
	afterRe    = regexp.MustCompile(`\s*\(after:\s*([^()]*)\)$`)
)

// Parse converts plan source bytes into a Plan. The grammar is strict:
// anything that is not a title, a phase heading, a task line, or a blank
// line is a parse error rather than a guess.
//
// Grammar:
//
//	---                      (optional YAML frontmatter: plan, tickets)
//	# <plan name>
//	## Phase: <phase name>
//	- <task id>: <description> (after: <id>, <id>) [<ticket>](<url>)
//
// The "(after: ...)" and ticket link suffixes are both optional.
func Parse(source string, data []byte) (*Plan, error) {
	fm, body, fmLines, err := splitFrontmatter(source, data)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		ID:         deriveID(source, data),
		Name:       fm.Plan,
		Source:     source,
		TicketBase: fm.Tickets,
		byID:       make(map[string]*Task),
	}

	var current *Phase
	sawTitle := false

	lines := strings.Split(string(body), "\n")
	for i, raw := range lines {
		lineNo := fmLines + i + 1
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "## Phase:"):
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "## Phase:"))
			if name == "" {
				return nil, malformed(source, lineNo, ErrBadSyntax, "phase heading has no name")
			}
			if current != nil && len(current.Tasks) == 0 {
				return nil, malformed(source, lineNo, ErrEmptyPhase, "phase %q has no tasks", current.Name)
			}
			current = &Phase{Name: name, Ordinal: len(p.Phases)}
			p.Phases = append(p.Phases, current)

		case strings.HasPrefix(trimmed, "# "):
			if sawTitle {
				return nil, malformed(source, lineNo, ErrBadSyntax, "duplicate plan title")
			}
			sawTitle = true
			if p.Name == "" {
				p.Name = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			}

		case strings.HasPrefix(trimmed, "- "):
			if current == nil {
				return nil, malformed(source, lineNo, ErrBadSyntax, "task line outside of a phase")
			}
			task, err := parseTaskLine(source, lineNo, trimmed, p.TicketBase)
			if err != nil {
				return nil, err
			}
			if _, dup := p.byID[task.ID]; dup {
				return nil, malformed(source, lineNo, ErrDuplicateTaskID, "task id %q declared twice", task.ID)
			}
			task.PhaseOrdinal = current.Ordinal
			task.Position = len(current.Tasks)
			current.Tasks = append(current.Tasks, task)
			p.byID[task.ID] = task

		default:
			return nil, malformed(source, lineNo, ErrBadSyntax, "unexpected line %q", trimmed)
		}
	}

	return p, validate(p)
}

// parseTaskLine parses one "- id: description ..." line, peeling the
// optional ticket link and dependency suffix off the end.
func parseTaskLine(source string, lineNo int, line, ticketBase string) (*Task, error) {
	m := taskLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, malformed(source, lineNo, ErrBadSyntax, "task line %q does not match '- <id>: <description>'", line)
	}
	task := &Task{ID: m[1]}
	rest := m[2]

	if tm := ticketRe.FindStringSubmatch(rest); tm != nil {
		task.TicketRef = ticketRef(tm[1], tm[2], ticketBase)
		rest = strings.TrimSpace(rest[:len(rest)-len(tm[0])])
	}

	if am := afterRe.FindStringSubmatch(rest); am != nil {
		for _, dep := range strings.Split(am[1], ",") {
			dep = strings.TrimSpace(dep)
			if dep == "" {
				continue
			}
			task.DependsOn = append(task.DependsOn, dep)
		}
		if len(task.DependsOn) == 0 {
			return nil, malformed(source, lineNo, ErrBadSyntax, "empty (after: ...) clause on task %q", task.ID)
		}
		rest = strings.TrimSpace(rest[:len(rest)-len(am[0])])
	}

	if rest == "" {
		return nil, malformed(source, lineNo, ErrBadSyntax, "task %q has no description", task.ID)
	}
	task.Description = rest
	return task, nil
}

// ticketRef resolves a ticket link to its reference string. A link with
// an explicit URL wins; a bare label is joined to the frontmatter ticket
// base when one is configured.
func ticketRef(label, url, base string) string {
	if url != "" {
		return url
	}
	if base != "" {
		return base + label
	}
	return label
}

// splitFrontmatter peels the optional leading "---" YAML fence off the
// source. Returns the parsed frontmatter, the remaining body, and the
// number of source lines the frontmatter consumed.
func splitFrontmatter(source string, data []byte) (frontmatter, []byte, int, error) {
	var fm frontmatter
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return fm, data, 0, nil
	}
	rest := data[4:]
	idx := bytes.Index(rest, []byte("\n---\n"))
	if idx < 0 {
		return fm, nil, 0, malformed(source, 1, ErrBadSyntax, "unterminated frontmatter fence")
	}
	meta := rest[:idx]
	body := rest[idx+len("\n---\n"):]

	dec := yaml.NewDecoder(bytes.NewReader(meta))
	dec.KnownFields(true)
	if err := dec.Decode(&fm); err != nil {
		return fm, nil, 0, malformed(source, 1, ErrBadSyntax, "frontmatter: %v", err)
	}
	fmLines := bytes.Count(data[:4+idx+len("\n---\n")], []byte("\n"))
	return fm, body, fmLines, nil
}

// validate enforces the structural invariants that make a Plan
// well-formed: at least one phase, no empty phases, and every dependency
// resolving to a declared task.
func validate(p *Plan) error {
	if len(p.Phases) == 0 {
		return malformed(p.Source, 0, ErrNoPhases, "no phases declared")
	}
	for _, ph := range p.Phases {
		if len(ph.Tasks) == 0 {
			return malformed(p.Source, 0, ErrEmptyPhase, "phase %q has no tasks", ph.Name)
		}
	}
	for _, t := range p.Tasks() {
		for _, dep := range t.DependsOn {
			if _, ok := p.byID[dep]; !ok {
				return malformed(p.Source, 0, ErrUnknownDependency,
					"task %q depends on unknown task %q", t.ID, dep)
			}
		}
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("plan %s", p.ID)
	}
	return nil
}
