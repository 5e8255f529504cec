package resources

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/waymark-dev/waymark/internal/config"
)

// findResourceRoot walks up from base looking for waymark/workspace.json,
// mirroring the tool-side workspace discovery.
func findResourceRoot(base string) (string, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		base = wd
	}
	current := base
	for {
		if _, err := os.Stat(config.ConfigPath(current)); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return base, nil
		}
		current = parent
	}
}
