// Package fetch resolves declared dependencies to local directories.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Norgate-AV/constructor/internal/compiler"
	"github.com/Norgate-AV/constructor/internal/config"
	"github.com/Norgate-AV/constructor/internal/ctxlog"
)

// gitMarker marks a directory as a git checkout
const gitMarker = ".git"

// Fetcher brings dependencies into the dependency root
type Fetcher struct {
	runner  compiler.Runner
	root    string
	depsDir string
	force   bool
}

// New creates a fetcher. depsDir is resolved against root when relative;
// git commands run with root as working directory.
func New(runner compiler.Runner, root, depsDir string, force bool) *Fetcher {
	if depsDir == "" {
		depsDir = config.DefaultDepsDir
	}

	if !filepath.IsAbs(depsDir) && root != "" {
		depsDir = filepath.Join(root, depsDir)
	}

	return &Fetcher{
		runner:  runner,
		root:    root,
		depsDir: depsDir,
		force:   force,
	}
}

// Dir returns the directory a dependency is fetched into
func (f *Fetcher) Dir(dep config.Dependency) string {
	return filepath.Join(f.depsDir, dep.Name)
}

// Fetch resolves one dependency. Only git sources take any action;
// local, system and unknown kinds are acknowledged and skipped.
func (f *Fetcher) Fetch(ctx context.Context, dep config.Dependency) error {
	logger := ctxlog.FromContext(ctx).With("dependency", dep.Name)

	switch dep.Source {
	case config.SourceGit:
		return f.fetchGit(ctxlog.WithLogger(ctx, logger), dep)
	case config.SourceLocal:
		logger.Info("local dependency", "location", dep.Location)
	case config.SourceSystem:
		logger.Info("system dependency")
	default:
		logger.Info("unknown dependency type", "source", dep.Source)
	}

	return nil
}

func (f *Fetcher) fetchGit(ctx context.Context, dep config.Dependency) error {
	logger := ctxlog.FromContext(ctx)
	dir := f.Dir(dep)

	if f.force && exists(dir) {
		logger.Info("force rebuilding dependency", "dir", dir)

		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove dependency %s: %w", dep.Name, err)
		}
	}

	if exists(dir) {
		// Never touch a directory that git does not own
		if !exists(filepath.Join(dir, gitMarker)) {
			return &NotAGitRepoError{Name: dep.Name, Path: dir}
		}

		logger.Info("dependency already exists, pulling latest changes", "dir", dir)

		cmd := compiler.Command{Path: "git", Args: []string{"pull"}, Dir: dir}
		if err := f.runner.Run(ctx, cmd); err != nil {
			return &UpdateFailedError{Name: dep.Name, Err: err}
		}

		return nil
	}

	if err := os.MkdirAll(f.depsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create dependency directory: %w", err)
	}

	logger.Info("cloning dependency", "location", dep.Location, "dir", dir)

	cmd := compiler.Command{Path: "git", Args: []string{"clone", dep.Location, dir}, Dir: f.root}
	if err := f.runner.Run(ctx, cmd); err != nil {
		return &CloneFailedError{Name: dep.Name, Err: err}
	}

	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
