// Package history implements the append-only session journal, backed by
// SQLite. Every transition and ledger append is journaled as it
// happens, which gives two things the markdown document alone cannot:
// a queryable timeline of the session, and an independent event stream
// the validator can replay to prove no change was ever recorded against
// a task that was not being worked.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Event kinds journaled during a session.
const (
	EventSessionStart = "session_start"
	EventTaskStart    = "task_start"
	EventChange       = "change"
	EventAck          = "ack"
	EventTaskComplete = "task_complete"
	EventDivergence   = "divergence"
	EventValidatePass = "validate_pass"
	EventArchive      = "archive"
)

// Event is one journal entry. TaskID, Path, and Detail are optional
// depending on the kind.
type Event struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	TaskID    string `json:"task_id,omitempty"`
	Path      string `json:"path,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Journal is the SQLite-backed event log.
type Journal struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	kind       TEXT NOT NULL,
	task_id    TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, id);
`

// Open creates the journal database (and its parent directory) if
// needed and applies the schema.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append journals one event. The insertion timestamp is assigned here
// so the journal is the single ordering authority.
func (j *Journal) Append(ev Event) error {
	ev.CreatedAt = timeNow().UTC().Format(time.RFC3339)
	_, err := j.db.Exec(
		`INSERT INTO events (session_id, kind, task_id, path, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.Kind, ev.TaskID, ev.Path, ev.Detail, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("history: append %s event: %w", ev.Kind, err)
	}
	return nil
}

// BySession returns every event for a session in insertion order.
func (j *Journal) BySession(sessionID string) ([]Event, error) {
	rows, err := j.db.Query(
		`SELECT id, session_id, kind, task_id, path, detail, created_at
		 FROM events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query session %q: %w", sessionID, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Sessions returns the distinct session ids in first-seen order.
func (j *Journal) Sessions() ([]string, error) {
	rows, err := j.db.Query(`SELECT session_id FROM events GROUP BY session_id ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("history: list sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("history: scan session id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Kind, &ev.TaskID, &ev.Path, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
