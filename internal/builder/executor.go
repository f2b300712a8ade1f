// Package builder runs targets and dependency fetches.
//
// An Executor builds one target: it fingerprints the target, skips straight
// to the post-build hooks when the fingerprint matches the cache record, and
// otherwise runs pre-build hooks, the compiler and post-build hooks before
// persisting the new fingerprint. An Orchestrator fans both dependency
// fetches and target builds out concurrently, one phase after the other.
package builder

import (
	"context"
	"strings"

	"github.com/Norgate-AV/constructor/internal/cache"
	"github.com/Norgate-AV/constructor/internal/compiler"
	"github.com/Norgate-AV/constructor/internal/config"
	"github.com/Norgate-AV/constructor/internal/ctxlog"
)

// Outcome is how a target build ended
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSkipped
	OutcomeUpToDate
	OutcomeBuilt
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUpToDate:
		return "up to date"
	case OutcomeBuilt:
		return "built"
	default:
		return "failed"
	}
}

// Executor builds single targets of a workspace
type Executor struct {
	runner  compiler.Runner
	ws      *config.Workspace
	history *cache.History
	force   bool
}

// NewExecutor creates an executor. history may be nil, in which case cache
// misses are reported without a category breakdown.
func NewExecutor(runner compiler.Runner, ws *config.Workspace, history *cache.History, force bool) *Executor {
	return &Executor{
		runner:  runner,
		ws:      ws,
		history: history,
		force:   force,
	}
}

// Build runs one target to completion. The first failing step aborts the
// target and leaves its cache record untouched.
func (e *Executor) Build(ctx context.Context, target config.Target) (Outcome, error) {
	logger := ctxlog.FromContext(ctx).With("target", target.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	if !target.IsEnabled() {
		logger.Info("target disabled, skipping")
		return OutcomeSkipped, nil
	}

	fp := cache.Compute(target, e.ws.Dependencies, e.ws.Root)
	recordPath := e.ws.Resolve(target.CacheFile())

	if e.force {
		logger.Info("forced rebuild, ignoring cache")
	} else {
		prev, ok, err := cache.ReadRecord(recordPath)
		if err != nil {
			return OutcomeFailed, err
		}

		if ok && prev == fp.Sum {
			logger.Info("target is up to date (cache hit), skipping build")

			if err := e.runHooks(ctx, PhasePostBuild, target.PostBuildScripts); err != nil {
				return OutcomeFailed, err
			}

			return OutcomeUpToDate, nil
		}

		if ok {
			e.explainMiss(ctx, target.Name, prev, fp)
		}
	}

	if err := e.runHooks(ctx, PhasePreBuild, target.PreBuildScripts); err != nil {
		return OutcomeFailed, err
	}

	if err := e.compile(ctx, target); err != nil {
		return OutcomeFailed, err
	}

	if err := e.runHooks(ctx, PhasePostBuild, target.PostBuildScripts); err != nil {
		return OutcomeFailed, err
	}

	if err := e.persist(ctx, target.Name, recordPath, fp); err != nil {
		return OutcomeFailed, err
	}

	return OutcomeBuilt, nil
}

func (e *Executor) compile(ctx context.Context, target config.Target) error {
	logger := ctxlog.FromContext(ctx)

	compiler.EnsureOutputDir(ctx, e.ws.Resolve(target.OutDir))

	inv, err := compiler.Synthesize(target)
	if err != nil {
		return err
	}

	inv.Dir = e.ws.Root

	logger.Info("generated command", "command", inv.String())

	if err := e.runner.Run(ctx, inv.Command); err != nil {
		return &CompileFailedError{Target: target.Name, Err: err}
	}

	logger.Info("successfully built", "output", inv.Output)

	return nil
}

// runHooks runs scripts in order; the first failure stops the phase
func (e *Executor) runHooks(ctx context.Context, phase Phase, scripts []string) error {
	logger := ctxlog.FromContext(ctx)

	for _, script := range scripts {
		logger.Info("running hook", "phase", phase, "script", script)

		if err := e.runner.Run(ctx, compiler.ShellCommand(script, e.ws.Root)); err != nil {
			return &ScriptFailedError{Phase: phase, Script: script, Err: err}
		}
	}

	return nil
}

func (e *Executor) persist(ctx context.Context, name, recordPath string, fp cache.Fingerprint) error {
	if err := cache.WriteRecord(recordPath, fp.Sum); err != nil {
		return err
	}

	if e.history == nil {
		return nil
	}

	// The record is authoritative; the breakdown only feeds diagnostics
	if err := e.history.Put(name, fp); err != nil {
		ctxlog.FromContext(ctx).Warn("failed to store fingerprint breakdown", "error", err)
	}

	return nil
}

// explainMiss logs which categories changed since the recorded fingerprint
func (e *Executor) explainMiss(ctx context.Context, name string, prev uint64, fp cache.Fingerprint) {
	logger := ctxlog.FromContext(ctx)

	if e.history == nil {
		logger.Info("cache miss", "reason", "no breakdown recorded")
		return
	}

	entry, err := e.history.Get(name)
	if err != nil || entry == nil || entry.Sum != prev {
		logger.Info("cache miss", "reason", "no breakdown recorded")
		return
	}

	changed := fp.Changed(entry.Parts)
	names := make([]string, len(changed))
	for i, c := range changed {
		names[i] = string(c)
	}

	logger.Info("cache miss", "changed", strings.Join(names, ","))
}
