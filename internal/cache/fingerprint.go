package cache

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/Norgate-AV/constructor/internal/config"
)

// Category is one group of fingerprint inputs with its own sub-hash
type Category string

const (
	CategorySources       Category = "sources"
	CategoryDefines       Category = "defines"
	CategoryCompilerFlags Category = "compiler_flags"
	CategoryIncludes      Category = "includes"
	CategoryLinkerFlags   Category = "linker_flags"
	CategoryDependencies  Category = "dependencies"
)

// Categories lists every category in hashing order
var Categories = []Category{
	CategorySources,
	CategoryDefines,
	CategoryCompilerFlags,
	CategoryIncludes,
	CategoryLinkerFlags,
	CategoryDependencies,
}

// Fingerprint is the content-derived key of a target build
type Fingerprint struct {
	// Sum is the value persisted in the cache record
	Sum uint64

	// Parts holds the isolated sub-hash of each category
	Parts map[Category]uint64
}

// Compute hashes everything that affects a target's output.
//
// Inputs are folded in a fixed order: sources (path, then content when
// readable), defines, compiler flags, includes, linker flags, and every
// dependency of the workspace as a (name, source, location) triple. List
// order is significant. Relative source paths are read from root.
func Compute(target config.Target, deps []config.Dependency, root string) Fingerprint {
	total := xxhash.New()
	fp := Fingerprint{Parts: make(map[Category]uint64, len(Categories))}

	for _, category := range Categories {
		part := xxhash.New()
		w := io.MultiWriter(total, part)

		switch category {
		case CategorySources:
			writeCount(w, len(target.Sources))
			for _, source := range target.Sources {
				writeString(w, source)
				writeSource(w, resolve(root, source))
			}
		case CategoryDefines:
			writeList(w, target.Defines)
		case CategoryCompilerFlags:
			writeList(w, target.CompilerFlags)
		case CategoryIncludes:
			writeList(w, target.Includes)
		case CategoryLinkerFlags:
			writeList(w, target.LinkerFlags)
		case CategoryDependencies:
			writeCount(w, len(deps))
			for _, dep := range deps {
				writeString(w, dep.Name)
				writeString(w, dep.Source)
				writeString(w, dep.Location)
			}
		}

		fp.Parts[category] = part.Sum64()
	}

	fp.Sum = total.Sum64()

	return fp
}

// Changed returns the categories whose sub-hash differs from prev, in hashing order
func (f Fingerprint) Changed(prev map[Category]uint64) []Category {
	var changed []Category
	for _, category := range Categories {
		old, ok := prev[category]
		if !ok || old != f.Parts[category] {
			changed = append(changed, category)
		}
	}

	return changed
}

// writeSource adds the file content, or only an absence marker when the file
// cannot be read. A source that is generated by a pre-build hook may not exist yet.
func writeSource(w io.Writer, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		_, _ = w.Write([]byte{0})
		return
	}

	_, _ = w.Write([]byte{1})
	writeBytes(w, data)
}

func writeList(w io.Writer, items []string) {
	writeCount(w, len(items))
	for _, item := range items {
		writeString(w, item)
	}
}

func writeCount(w io.Writer, n int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	_, _ = w.Write(buf[:])
}

func writeString(w io.Writer, s string) {
	writeBytes(w, []byte(s))
}

func writeBytes(w io.Writer, b []byte) {
	writeCount(w, len(b))
	_, _ = w.Write(b)
}

func resolve(root, path string) string {
	if root == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(root, path)
}
