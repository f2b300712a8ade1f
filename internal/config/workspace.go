package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Norgate-AV/constructor/internal/utils"
)

// Target kinds understood by the compiler synthesizer
const (
	KindExecutable = "executable"
	KindStaticLib  = "staticlib"
	KindDynamicLib = "dynamiclib"
)

// Dependency source kinds
const (
	SourceGit    = "git"
	SourceLocal  = "local"
	SourceSystem = "system"
)

// Workspace is the in-memory description of a project file
type Workspace struct {
	Project      Project      `mapstructure:"project"`
	Dependencies []Dependency `mapstructure:"dependencies"`
	Targets      []Target     `mapstructure:"targets"`
	Description  string       `mapstructure:"description"`

	// Root is the absolute directory containing the project file.
	// Relative paths in the model resolve against it.
	Root string `mapstructure:"-"`
}

// Project holds the project metadata
type Project struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	Language string `mapstructure:"language"`
}

// Dependency is an external dependency resolved before any target builds
type Dependency struct {
	Name     string `mapstructure:"name"`
	Source   string `mapstructure:"source"`
	Location string `mapstructure:"location"`
}

// Target is one build unit producing a single artifact
type Target struct {
	Name             string   `mapstructure:"name"`
	Kind             string   `mapstructure:"kind"`
	OutDir           string   `mapstructure:"out_dir"`
	Sources          []string `mapstructure:"sources"`
	Includes         []string `mapstructure:"includes"`
	Defines          []string `mapstructure:"defines"`
	CompilerFlags    []string `mapstructure:"compiler_flags"`
	LinkerFlags      []string `mapstructure:"linker_flags"`
	Frameworks       []string `mapstructure:"frameworks"`
	PreBuildScripts  []string `mapstructure:"pre_build_scripts"`
	PostBuildScripts []string `mapstructure:"post_build_scripts"`
	OSTarget         string   `mapstructure:"os_target"`
	Compiler         string   `mapstructure:"compiler"`
	Enabled          *bool    `mapstructure:"enabled"`
	Description      string   `mapstructure:"description"`
}

// VersionDefines returns the version defines injected into every target
func (p Project) VersionDefines() []string {
	return utils.VersionDefines(p.Name, p.Version)
}

// IsEnabled reports whether the target should be built. Absent means enabled.
func (t Target) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// IsMacOS reports whether the target platform tag is macOS
func (t Target) IsMacOS() bool {
	return strings.EqualFold(t.OSTarget, "macos")
}

// WithDefines returns a copy of the target with extra defines appended
func (t Target) WithDefines(extra ...string) Target {
	defines := make([]string, 0, len(t.Defines)+len(extra))
	defines = append(defines, t.Defines...)
	defines = append(defines, extra...)
	t.Defines = defines

	return t
}

// CacheFile returns the path of the fingerprint record for this target,
// relative to the workspace root unless OutDir is absolute.
func (t Target) CacheFile() string {
	return filepath.Join(t.OutDir, ".build_cache_"+t.Name+".txt")
}

// EnabledTargets returns the targets that are not disabled, in declaration order
func (w *Workspace) EnabledTargets() []Target {
	var targets []Target
	for _, t := range w.Targets {
		if t.IsEnabled() {
			targets = append(targets, t)
		}
	}

	return targets
}

// Resolve returns p joined to the workspace root when p is relative
func (w *Workspace) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || w.Root == "" {
		return p
	}

	return filepath.Join(w.Root, p)
}

// Validate checks the fields the build relies on
func (w *Workspace) Validate() error {
	if strings.TrimSpace(w.Project.Name) == "" {
		return fmt.Errorf("project name is required")
	}

	seen := make(map[string]bool, len(w.Targets))
	for i, t := range w.Targets {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("target #%d has no name", i+1)
		}

		if seen[t.Name] {
			return fmt.Errorf("duplicate target name: %s", t.Name)
		}

		seen[t.Name] = true
	}

	return nil
}
