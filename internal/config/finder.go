package config

import (
	"os"
	"path/filepath"
)

// FindWorkspace looks for a project file named name in dir and its parents.
// Returns "" when no parent holds one.
func FindWorkspace(dir, name string) string {
	for {
		path := filepath.Join(dir, name)

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
