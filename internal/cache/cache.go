// Package cache decides whether a target needs rebuilding.
//
// Every target owns a cache record, a text file in its output directory
// holding the decimal 64-bit fingerprint of its last successful build.
// Alongside the records, a BoltDB history keeps the per-category sub-hashes
// of each fingerprint so a cache miss can be explained category by category:
//
//  1. Compute hashes sources, defines, flags, includes and the dependency list
//  2. ReadRecord / WriteRecord load and persist the decimal fingerprint
//  3. History stores the category breakdown of the persisted fingerprint
//  4. ClearRecords removes the records of a target
//
// Inputs that are not hashed, such as the compiler version or environment,
// are invisible to the cache.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// historyFile is the BoltDB file name inside the cache directory
	historyFile = "history.db"

	// bucketName is the BoltDB bucket name for history entries
	bucketName = "fingerprints"
)

// History stores the fingerprint breakdown of every built target using BoltDB
type History struct {
	db   *bbolt.DB
	root string
}

// OpenHistory opens or creates the history database in cacheDir
func OpenHistory(cacheDir string) (*History, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, &IOError{Op: "open", Path: cacheDir, Err: err}
	}

	dbPath := filepath.Join(cacheDir, historyFile)
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &IOError{Op: "open", Path: dbPath, Err: err}
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &History{
		db:   db,
		root: cacheDir,
	}, nil
}

// Close closes the history database
func (h *History) Close() error {
	if h.db != nil {
		return h.db.Close()
	}

	return nil
}

// Get returns the entry for a target, or nil when none is stored
func (h *History) Get(target string) (*Entry, error) {
	var entry *Entry
	err := h.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(target))
		if data == nil {
			return nil
		}

		entry = &Entry{}
		return json.Unmarshal(data, entry)
	})
	if err != nil {
		return nil, &IOError{Op: "read history", Path: target, Err: err}
	}

	return entry, nil
}

// Put stores the breakdown of a freshly persisted fingerprint
func (h *History) Put(target string, fp Fingerprint) error {
	entry := Entry{
		Target:    target,
		Sum:       fp.Sum,
		Parts:     fp.Parts,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return &IOError{Op: "write history", Path: target, Err: err}
	}

	err = h.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(target), data)
	})
	if err != nil {
		return &IOError{Op: "write history", Path: target, Err: err}
	}

	return nil
}

// Delete removes the entry of a target
func (h *History) Delete(target string) error {
	err := h.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(target))
	})
	if err != nil {
		return &IOError{Op: "delete history", Path: target, Err: err}
	}

	return nil
}

// Len returns the number of stored entries
func (h *History) Len() (int, error) {
	var count int
	err := h.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(bucketName)).Stats().KeyN
		return nil
	})

	return count, err
}
