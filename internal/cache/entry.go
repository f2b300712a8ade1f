package cache

import "time"

// Entry records the last persisted fingerprint of a target
type Entry struct {
	// Target is the target name, also the entry key
	Target string `json:"target"`

	// Sum is the fingerprint written to the target's cache record
	Sum uint64 `json:"sum"`

	// Parts holds the per-category sub-hashes behind Sum
	Parts map[Category]uint64 `json:"parts"`

	// Timestamp when this entry was written
	Timestamp time.Time `json:"timestamp"`
}
