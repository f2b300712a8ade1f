package builder

import (
	"context"

	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/constructor/internal/cache"
	"github.com/Norgate-AV/constructor/internal/compiler"
	"github.com/Norgate-AV/constructor/internal/config"
	"github.com/Norgate-AV/constructor/internal/ctxlog"
	"github.com/Norgate-AV/constructor/internal/fetch"
)

// Fetcher resolves one dependency
type Fetcher interface {
	Fetch(ctx context.Context, dep config.Dependency) error
}

// TargetBuilder builds one target
type TargetBuilder interface {
	Build(ctx context.Context, target config.Target) (Outcome, error)
}

// Options controls an orchestration run
type Options struct {
	// Force bypasses fingerprint comparison and re-fetches git dependencies
	Force bool

	// Jobs caps concurrent units per phase, 0 for one unit per dependency or target
	Jobs int

	// DepsDir and CacheDir resolve against the workspace root when relative
	DepsDir  string
	CacheDir string
}

// Orchestrator drives the fetch phase and then the build phase of a workspace
type Orchestrator struct {
	ws      *config.Workspace
	fetcher Fetcher
	builder TargetBuilder
	history *cache.History
	jobs    int
}

// New creates an orchestrator running processes through runner.
// The caller must Close it to release the fingerprint history.
func New(ws *config.Workspace, runner compiler.Runner, opts Options) (*Orchestrator, error) {
	if opts.CacheDir == "" {
		opts.CacheDir = config.DefaultCacheDir
	}

	history, err := cache.OpenHistory(ws.Resolve(opts.CacheDir))
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		ws:      ws,
		fetcher: fetch.New(runner, ws.Root, ws.Resolve(opts.DepsDir), opts.Force),
		builder: NewExecutor(runner, ws, history, opts.Force),
		history: history,
		jobs:    opts.Jobs,
	}, nil
}

// Close releases the fingerprint history
func (o *Orchestrator) Close() error {
	if o.history != nil {
		return o.history.Close()
	}

	return nil
}

// Run fetches every dependency, then builds every enabled target
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.FetchAll(ctx); err != nil {
		return err
	}

	return o.BuildAll(ctx)
}

// FetchAll fetches every dependency concurrently and waits for all of them.
// The first failure in declaration order is returned; later ones are dropped.
func (o *Orchestrator) FetchAll(ctx context.Context) error {
	deps := o.ws.Dependencies
	errs := make([]error, len(deps))

	g := o.group()
	for i, dep := range deps {
		g.Go(func() error {
			errs[i] = runUnit("dependency "+dep.Name, func() error {
				return o.fetcher.Fetch(ctx, dep)
			})

			return nil
		})
	}

	_ = g.Wait()

	return firstError(errs)
}

// BuildAll builds every enabled target concurrently. Every target runs to
// completion regardless of its siblings; all failures are reported together.
func (o *Orchestrator) BuildAll(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	defines := o.ws.Project.VersionDefines()

	var targets []config.Target
	for _, t := range o.ws.Targets {
		if !t.IsEnabled() {
			logger.Info("target disabled, skipping", "target", t.Name)
			continue
		}

		targets = append(targets, t.WithDefines(defines...))
	}

	outcomes := make([]Outcome, len(targets))
	errs := make([]error, len(targets))

	g := o.group()
	for i, target := range targets {
		g.Go(func() error {
			errs[i] = runUnit("target "+target.Name, func() error {
				outcome, err := o.builder.Build(ctx, target)
				outcomes[i] = outcome
				return err
			})

			return nil
		})
	}

	_ = g.Wait()

	failures := collectAll(targets, errs)
	if len(failures) > 0 {
		for _, f := range failures {
			logger.Error("build failed", "target", f.Target, "error", f.Err)
		}

		return &BuildFailedError{Failures: failures}
	}

	counts := make(map[Outcome]int)
	for _, outcome := range outcomes {
		counts[outcome]++
	}

	logger.Info("build finished", "built", counts[OutcomeBuilt], "up_to_date", counts[OutcomeUpToDate])

	return nil
}

// Clean removes the cache records and fingerprint history of every target,
// disabled ones included
func (o *Orchestrator) Clean(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	for _, t := range o.ws.Targets {
		removed, err := cache.ClearRecords(o.ws.Resolve(t.OutDir), t.Name)
		for _, path := range removed {
			logger.Info("removed cache file", "path", path)
		}

		if err != nil {
			return err
		}

		if err := o.history.Delete(t.Name); err != nil {
			return err
		}
	}

	return nil
}

func (o *Orchestrator) group() *errgroup.Group {
	g := &errgroup.Group{}
	if o.jobs > 0 {
		g.SetLimit(o.jobs)
	}

	return g
}

// runUnit runs fn and converts a panic into a UnitPanickedError
func runUnit(name string, fn func() error) error {
	var err error

	var pc panics.Catcher
	pc.Try(func() {
		err = fn()
	})

	if r := pc.Recovered(); r != nil {
		return &UnitPanickedError{Unit: name, Value: r.Value, Stack: r.Stack}
	}

	return err
}

// firstError is the fetch phase aggregation: first failure in spawn order wins
func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

// collectAll is the build phase aggregation: every failure is kept
func collectAll(targets []config.Target, errs []error) []TargetFailure {
	var failures []TargetFailure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, TargetFailure{Target: targets[i].Name, Err: err})
		}
	}

	return failures
}
