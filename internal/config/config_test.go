package config

import (
	"path/filepath"
	"testing"
	"time"
)

func init() {
	// Freeze time for deterministic timestamps.
	timeNow = func() time.Time {
		return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	}
}

// --- Path helpers ---

func TestPaths(t *testing.T) {
	root := "/project"
	cases := []struct{ got, want string }{
		{RootDir(root), filepath.Join(root, "waymark")},
		{ConfigPath(root), filepath.Join(root, "waymark", "workspace.json")},
		{TrackingPath(root), filepath.Join(root, "waymark", "TODO.md")},
		{JournalPath(root), filepath.Join(root, "waymark", "journal.db")},
		{HistoryPath(root), filepath.Join(root, "waymark", "history")},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("path = %q, want %q", c.got, c.want)
		}
	}
}

// --- FileStore ---

func TestFileStore_SaveLoad(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()

	ws := &Workspace{PlanPath: "plans/demo.md", SessionID: "sess-1"}
	if err := store.Save(root, ws); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.PlanPath != "plans/demo.md" || got.SessionID != "sess-1" {
		t.Errorf("loaded workspace = %+v", got)
	}
	if got.CreatedAt != "2026-03-01T10:00:00Z" || got.UpdatedAt != "2026-03-01T10:00:00Z" {
		t.Errorf("timestamps = %q / %q", got.CreatedAt, got.UpdatedAt)
	}
}

func TestFileStore_SavePreservesCreatedAt(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()

	ws := &Workspace{PlanPath: "p.md", SessionID: "s", CreatedAt: "2026-01-01T00:00:00Z"}
	if err := store.Save(root, ws); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if got.CreatedAt != "2026-01-01T00:00:00Z" {
		t.Errorf("CreatedAt = %q, want original", got.CreatedAt)
	}
	if got.UpdatedAt != "2026-03-01T10:00:00Z" {
		t.Errorf("UpdatedAt = %q, want refreshed", got.UpdatedAt)
	}
}

func TestFileStore_Exists(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()
	if store.Exists(root) {
		t.Error("Exists should be false before Save")
	}
	if err := store.Save(root, &Workspace{PlanPath: "p.md", SessionID: "s"}); err != nil {
		t.Fatal(err)
	}
	if !store.Exists(root) {
		t.Error("Exists should be true after Save")
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	if _, err := NewFileStore().Load(t.TempDir()); err == nil {
		t.Fatal("expected an error for a missing workspace")
	}
}
