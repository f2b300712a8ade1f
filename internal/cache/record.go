package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// IOError is returned when a cache record or history entry cannot be read or written
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ReadRecord loads the previous fingerprint from a cache record.
// A missing or unparsable record is reported as absent, not as an error.
func ReadRecord(path string) (uint64, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, false, nil
		}

		return 0, false, &IOError{Op: "read", Path: path, Err: err}
	}

	sum, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false, nil
	}

	return sum, true, nil
}

// WriteRecord stores a fingerprint as a decimal line, replacing any previous record
func WriteRecord(path string, sum uint64) error {
	data := strconv.FormatUint(sum, 10) + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	return nil
}
