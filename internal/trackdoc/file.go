package trackdoc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/waymark-dev/waymark/internal/track"
)

// LockError reports that the tracking document is already locked by
// another writer (or by a crashed session whose lock was left behind —
// the operator removes it explicitly; the writer never guesses).
type LockError struct {
	Path string
}

func (e *LockError) Error() string {
	return fmt.Sprintf("tracking document is locked: %s exists (remove it if no other session is running)", e.Path)
}

// Save persists the document atomically: the rendered text is staged to
// a temporary file in the same directory and renamed into place, so a
// crashed session never leaves the document partially written. A lock
// file is held for the duration of the write and released on every exit
// path.
func Save(path string, d *track.Document) error {
	lock := path + ".lock"
	f, err := os.OpenFile(lock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return &LockError{Path: lock}
		}
		return fmt.Errorf("acquiring lock %q: %w", lock, err)
	}
	f.Close()
	defer os.Remove(lock)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("staging tracking document: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.WriteString(Render(d)); err != nil {
		tmp.Close()
		return fmt.Errorf("writing tracking document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flushing tracking document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing tracking document: %w", err)
	}
	return nil
}

// Load reads and parses the document at path. I/O and parse failures
// surface verbatim — a corrupted document fails closed.
func Load(path string) (*track.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tracking document %q: %w", path, err)
	}
	d, err := Parse(string(data))
	if err != nil {
		return nil, err
	}
	return d, nil
}
