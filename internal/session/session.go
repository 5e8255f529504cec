// Package session is the composition root for one tracked work session.
// It wires the plan, the dependency graph, the tracker, the tracking
// document, and the journal together, and persists the document after
// every mutation so the on-disk state is never behind the in-memory
// state. CLI commands, MCP tools, and the TUI all drive a Session; no
// business logic lives in those surfaces.
package session

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/waymark-dev/waymark/internal/config"
	"github.com/waymark-dev/waymark/internal/graph"
	"github.com/waymark-dev/waymark/internal/history"
	"github.com/waymark-dev/waymark/internal/plan"
	"github.com/waymark-dev/waymark/internal/track"
	"github.com/waymark-dev/waymark/internal/trackdoc"
	"github.com/waymark-dev/waymark/internal/validate"
)

// Session holds everything needed to drive one plan through to release.
type Session struct {
	Root    string
	Plan    *plan.Plan
	Graph   *graph.Graph
	Tracker *track.Tracker

	// Resumed is the task re-derived as InProgress when an interrupted
	// session was reloaded, or "".
	Resumed string

	store   config.Store
	ws      *config.Workspace
	journal *history.Journal
	jErr    error
}

// Init creates a new workspace from a plan. The plan is parsed and its
// dependency graph verified acyclic before anything is written, so a
// rejected plan never produces a tracking document.
func Init(root, planPath string) (*Session, error) {
	store := config.NewFileStore()
	if store.Exists(root) {
		return nil, fmt.Errorf("workspace already initialized in %q", root)
	}

	rel := planPath
	if filepath.IsAbs(planPath) {
		if r, err := filepath.Rel(root, planPath); err == nil {
			rel = r
		}
	}

	p, err := plan.Load(filepath.Join(root, rel))
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(p)
	if err != nil {
		return nil, err
	}

	ws := &config.Workspace{
		PlanPath:  rel,
		SessionID: uuid.New().String(),
	}
	if err := store.Save(root, ws); err != nil {
		return nil, err
	}

	doc := track.NewDocument(p, rel, ws.SessionID)
	if err := trackdoc.Save(config.TrackingPath(root), doc); err != nil {
		return nil, err
	}

	s := &Session{
		Root:    root,
		Plan:    p,
		Graph:   g,
		Tracker: track.NewTracker(p, g, doc),
		store:   store,
		ws:      ws,
	}
	s.openJournal()
	s.journalEvent(history.Event{Kind: history.EventSessionStart, Detail: p.ID})
	return s, nil
}

// Open loads an existing workspace: plan re-parsed, graph rebuilt,
// tracking document parsed, and the live InProgress marker re-derived
// from ledger activity (the checkbox format cannot store it).
func Open(root string) (*Session, error) {
	store := config.NewFileStore()
	ws, err := store.Load(root)
	if err != nil {
		return nil, err
	}

	p, err := plan.Load(filepath.Join(root, ws.PlanPath))
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(p)
	if err != nil {
		return nil, err
	}

	doc, err := trackdoc.Load(config.TrackingPath(root))
	if err != nil {
		return nil, err
	}
	if err := reconcile(p, doc); err != nil {
		return nil, err
	}

	s := &Session{
		Root:    root,
		Plan:    p,
		Graph:   g,
		Tracker: track.NewTracker(p, g, doc),
		store:   store,
		ws:      ws,
	}
	if !doc.Finalized() {
		s.Resumed = doc.Resume()
	}
	s.openJournal()
	return s, nil
}

// Close releases the journal handle. Safe to call when the journal
// never opened.
func (s *Session) Close() {
	if s.journal != nil {
		s.journal.Close()
	}
}

// Document returns the session's tracking document.
func (s *Session) Document() *track.Document { return s.Tracker.Document() }

// SessionID returns the owning session id.
func (s *Session) SessionID() string { return s.ws.SessionID }

// Next returns the ordered ready task ids.
func (s *Session) Next() []string { return s.Tracker.Ready() }

// Start transitions a task to InProgress and persists the document.
func (s *Session) Start(id string) error {
	if err := s.Tracker.Start(id); err != nil {
		return err
	}
	if err := s.persist(); err != nil {
		return err
	}
	s.journalEvent(history.Event{Kind: history.EventTaskStart, TaskID: id})
	return nil
}

// Record appends a change record and persists the document.
func (s *Session) Record(id, path string, kind track.ChangeKind, summary string) (*track.ChangeRecord, error) {
	rec, err := s.Tracker.Record(id, path, kind, summary)
	if err != nil {
		return nil, err
	}
	if err := s.persist(); err != nil {
		return nil, err
	}
	s.journalEvent(history.Event{Kind: history.EventChange, TaskID: id, Path: rec.Path, Detail: string(rec.Kind) + ": " + rec.Summary})
	return rec, nil
}

// AcknowledgeNoChanges appends an explicit empty-change acknowledgment
// and persists the document.
func (s *Session) AcknowledgeNoChanges(id, note string) (*track.Acknowledgment, error) {
	ack, err := s.Tracker.AcknowledgeNoChanges(id, note)
	if err != nil {
		return nil, err
	}
	if err := s.persist(); err != nil {
		return nil, err
	}
	s.journalEvent(history.Event{Kind: history.EventAck, TaskID: id, Detail: ack.Note})
	return ack, nil
}

// Complete transitions a task to Complete and persists the document.
func (s *Session) Complete(id string) error {
	if err := s.Tracker.Complete(id); err != nil {
		return err
	}
	if err := s.persist(); err != nil {
		return err
	}
	s.journalEvent(history.Event{Kind: history.EventTaskComplete, TaskID: id})
	return nil
}

// Annotate attaches a divergence note and persists the document.
func (s *Session) Annotate(taskID string, recordSeq int, reason string, blocking bool) (*track.Divergence, error) {
	div, err := s.Tracker.Annotate(taskID, recordSeq, reason, blocking)
	if err != nil {
		return nil, err
	}
	if err := s.persist(); err != nil {
		return nil, err
	}
	s.journalEvent(history.Event{Kind: history.EventDivergence, TaskID: taskID, Detail: div.Reason})
	return div, nil
}

// Validate runs completion validation. With replay enabled, the journal
// is replayed first to prove change attribution before the document is
// finalized. On pass the finalized document is persisted.
func (s *Session) Validate(opts validate.Options, replay bool) (*track.ReleaseSummary, error) {
	if replay {
		if s.journal == nil {
			return nil, fmt.Errorf("replay requested but the journal is unavailable: %w", s.jErr)
		}
		events, err := s.journal.BySession(s.ws.SessionID)
		if err != nil {
			return nil, err
		}
		if err := validate.Replay(events, s.Document()); err != nil {
			return nil, err
		}
	}

	alreadyFinal := s.Document().Finalized()
	summary, err := validate.Run(s.Plan, s.Document(), opts)
	if err != nil {
		return nil, err
	}
	if !alreadyFinal {
		if err := s.persist(); err != nil {
			return nil, err
		}
		s.journalEvent(history.Event{Kind: history.EventValidatePass})
	}
	return summary, nil
}

// Archive moves the finalized session's artifacts into
// waymark/history/<session-id>/. Active sessions cannot be archived.
func (s *Session) Archive() error {
	if !s.Document().Finalized() {
		return fmt.Errorf("cannot archive: session is not finalized (run 'waymark validate' first)")
	}

	dst := filepath.Join(config.HistoryPath(s.Root), s.ws.SessionID)
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("session %q already archived", s.ws.SessionID)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	s.journalEvent(history.Event{Kind: history.EventArchive})
	if s.journal != nil {
		s.journal.Close()
		s.journal = nil
	}

	moves := [][2]string{
		{config.TrackingPath(s.Root), filepath.Join(dst, config.TrackingFile)},
		{config.ConfigPath(s.Root), filepath.Join(dst, config.ConfigFile)},
		{config.JournalPath(s.Root), filepath.Join(dst, config.JournalFile)},
	}
	for _, m := range moves {
		if err := os.Rename(m[0], m[1]); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("archiving %s: %w", filepath.Base(m[0]), err)
		}
	}
	return nil
}

// Journal returns the session journal, or nil with the open error when
// it is unavailable.
func (s *Session) Journal() (*history.Journal, error) {
	return s.journal, s.jErr
}

// persist writes the tracking document atomically.
func (s *Session) persist() error {
	return trackdoc.Save(config.TrackingPath(s.Root), s.Tracker.Document())
}

// openJournal opens the journal best-effort. The journal is a
// supporting subsystem: when it cannot open, tracking still works and
// only history/replay features are refused.
func (s *Session) openJournal() {
	j, err := history.Open(config.JournalPath(s.Root))
	if err != nil {
		s.jErr = err
		return
	}
	s.journal = j
}

// journalEvent appends best-effort; journal failures never block a
// transition that already happened.
func (s *Session) journalEvent(ev history.Event) {
	if s.journal == nil {
		return
	}
	ev.SessionID = s.ws.SessionID
	if err := s.journal.Append(ev); err != nil {
		fmt.Fprintf(os.Stderr, "warning: journal append failed: %v\n", err)
	}
}

// reconcile verifies the parsed document still matches the plan: same
// task set in the same order. A plan edited mid-session fails closed
// rather than guessing how statuses map onto the new shape.
func reconcile(p *plan.Plan, d *track.Document) error {
	tasks := p.Tasks()
	if len(tasks) != len(d.Items) {
		return fmt.Errorf("tracking document lists %d tasks but plan %q declares %d; re-run 'waymark init' for the new plan",
			len(d.Items), p.Name, len(tasks))
	}
	for i, t := range tasks {
		if d.Items[i].TaskID != t.ID {
			return fmt.Errorf("tracking document task %q does not match plan task %q at position %d",
				d.Items[i].TaskID, t.ID, i+1)
		}
	}
	return nil
}
