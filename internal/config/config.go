// Package config defines the on-disk workspace layout and the workspace
// configuration record persisted as waymark/workspace.json.
//
// Store is an interface so callers depend on the abstraction; FileStore
// is the filesystem implementation used everywhere outside tests.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// Dir is the subdirectory under the project root where all waymark
	// state lives.
	Dir = "waymark"
	// ConfigFile is the workspace configuration filename.
	ConfigFile = "workspace.json"
	// TrackingFile is the tracking document filename.
	TrackingFile = "TODO.md"
	// JournalFile is the session journal database filename.
	JournalFile = "journal.db"
	// HistoryDir is the subdirectory where archived sessions live.
	HistoryDir = "history"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Workspace is the persisted session configuration: where the plan and
// tracking document live and which session owns them.
type Workspace struct {
	PlanPath  string `json:"plan_path"` // relative to the project root
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// --- Path helpers ---

// RootDir returns the absolute path to the waymark/ directory.
func RootDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir)
}

// ConfigPath returns the absolute path to workspace.json.
func ConfigPath(projectRoot string) string {
	return filepath.Join(RootDir(projectRoot), ConfigFile)
}

// TrackingPath returns the absolute path to the tracking document.
func TrackingPath(projectRoot string) string {
	return filepath.Join(RootDir(projectRoot), TrackingFile)
}

// JournalPath returns the absolute path to the session journal database.
func JournalPath(projectRoot string) string {
	return filepath.Join(RootDir(projectRoot), JournalFile)
}

// HistoryPath returns the absolute path to the archive directory.
func HistoryPath(projectRoot string) string {
	return filepath.Join(RootDir(projectRoot), HistoryDir)
}

// --- Store ---

// Store defines workspace persistence. Abstracted for testability.
type Store interface {
	Load(projectRoot string) (*Workspace, error)
	Save(projectRoot string, ws *Workspace) error
	Exists(projectRoot string) bool
}

// FileStore implements Store using the local filesystem.
type FileStore struct{}

// NewFileStore creates a filesystem-backed workspace store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Exists reports whether a workspace has been initialized under the
// given project root.
func (fs *FileStore) Exists(projectRoot string) bool {
	_, err := os.Stat(ConfigPath(projectRoot))
	return err == nil
}

// Load reads workspace.json.
func (fs *FileStore) Load(projectRoot string) (*Workspace, error) {
	data, err := os.ReadFile(ConfigPath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no waymark workspace in %q (run 'waymark init <plan>')", projectRoot)
		}
		return nil, fmt.Errorf("reading workspace config: %w", err)
	}
	var ws Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("parsing workspace.json: %w", err)
	}
	return &ws, nil
}

// Save writes workspace.json, creating the waymark/ directory as needed.
func (fs *FileStore) Save(projectRoot string, ws *Workspace) error {
	ws.UpdatedAt = timeNow().UTC().Format(time.RFC3339)
	if ws.CreatedAt == "" {
		ws.CreatedAt = ws.UpdatedAt
	}
	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling workspace config: %w", err)
	}
	if err := os.MkdirAll(RootDir(projectRoot), 0o755); err != nil {
		return fmt.Errorf("creating waymark directory: %w", err)
	}
	return os.WriteFile(ConfigPath(projectRoot), data, 0o644)
}
