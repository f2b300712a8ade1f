package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// RecordPattern returns the glob matching every cache record file name of a target
func RecordPattern(target string) string {
	return ".build_cache_" + glob.QuoteMeta(target) + "*.txt"
}

// ClearRecords deletes the files in outDir matching the target's record pattern.
// Other files are left untouched. Returns the removed paths.
func ClearRecords(outDir, target string) ([]string, error) {
	g, err := glob.Compile(RecordPattern(target))
	if err != nil {
		return nil, fmt.Errorf("invalid cache pattern for %s: %w", target, err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Nothing built yet
		}

		return nil, &IOError{Op: "list", Path: outDir, Err: err}
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !g.Match(entry.Name()) {
			continue
		}

		path := filepath.Join(outDir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, &IOError{Op: "remove", Path: path, Err: err}
		}

		removed = append(removed, path)
	}

	return removed, nil
}
