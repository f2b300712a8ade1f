package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/constructor/internal/cache"
	"github.com/Norgate-AV/constructor/internal/compiler"
	"github.com/Norgate-AV/constructor/internal/config"
	"github.com/Norgate-AV/constructor/internal/ctxlog"
	"github.com/Norgate-AV/constructor/internal/fetch"
	"github.com/Norgate-AV/constructor/internal/testutil"
)

type fetchFunc func(ctx context.Context, dep config.Dependency) error

func (f fetchFunc) Fetch(ctx context.Context, dep config.Dependency) error {
	return f(ctx, dep)
}

type buildFunc func(ctx context.Context, target config.Target) (Outcome, error)

func (f buildFunc) Build(ctx context.Context, target config.Target) (Outcome, error) {
	return f(ctx, target)
}

func quietContext() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func newOrchestrator(t *testing.T, ws *config.Workspace, runner *testutil.RecordingRunner, opts Options) *Orchestrator {
	t.Helper()

	o, err := New(ws, runner, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })

	return o
}

func TestOrchestrator_RunFetchesThenBuilds(t *testing.T) {
	ws := newWorkspace(t)
	runner := &testutil.RecordingRunner{Handler: fakeToolchain}
	o := newOrchestrator(t, ws, runner, Options{})

	require.NoError(t, o.Run(quietContext()))

	calls := runner.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "git", calls[0].Path)
	assert.Equal(t, []string{"clone", "https://example.com/zlib.git", filepath.Join(ws.Root, "deps", "zlib")}, calls[0].Args)

	assert.Len(t, runner.CallsTo("cc"), 2)
	assert.FileExists(t, filepath.Join(ws.Root, "build", "app"))
	assert.FileExists(t, filepath.Join(ws.Root, "build", "libcore.a"))
	assert.DirExists(t, filepath.Join(ws.Root, config.DefaultCacheDir))
}

func TestOrchestrator_SecondRunIsUpToDate(t *testing.T) {
	ws := newWorkspace(t)
	ws.Dependencies = nil

	first := &testutil.RecordingRunner{Handler: fakeToolchain}
	require.NoError(t, newOrchestrator(t, ws, first, Options{CacheDir: t.TempDir()}).Run(quietContext()))
	assert.Len(t, first.CallsTo("cc"), 2)

	second := &testutil.RecordingRunner{Handler: fakeToolchain}
	require.NoError(t, newOrchestrator(t, ws, second, Options{CacheDir: t.TempDir()}).Run(quietContext()))
	assert.Empty(t, second.CallsTo("cc"))
	assert.Equal(t, []string{"echo post"}, second.Scripts())
}

func TestOrchestrator_InjectsVersionDefines(t *testing.T) {
	ws := newWorkspace(t)
	runner := &testutil.RecordingRunner{Handler: fakeToolchain}
	o := newOrchestrator(t, ws, runner, Options{})

	require.NoError(t, o.BuildAll(quietContext()))

	for _, call := range runner.CallsTo("cc") {
		assert.Contains(t, call.Args, "-DDEMO_VERSION_MAJOR=1")
		assert.Contains(t, call.Args, "-DDEMO_VERSION_MINOR=2")
		assert.Contains(t, call.Args, "-DDEMO_VERSION_PATCH=3")
	}

	// The workspace itself is left untouched
	assert.Equal(t, []string{"DEBUG"}, ws.Targets[0].Defines)
	assert.Empty(t, ws.Targets[1].Defines)
}

func TestOrchestrator_FailureIsolation(t *testing.T) {
	ws := newWorkspace(t)
	ws.Targets[0].PreBuildScripts = []string{"false"}
	runner := &testutil.RecordingRunner{Handler: fakeToolchain}
	o := newOrchestrator(t, ws, runner, Options{})

	err := o.BuildAll(quietContext())

	var buildErr *BuildFailedError
	require.True(t, errors.As(err, &buildErr))
	require.Len(t, buildErr.Failures, 1)
	assert.Equal(t, "app", buildErr.Failures[0].Target)
	assert.EqualError(t, err, "some targets failed to build: app")

	var scriptErr *ScriptFailedError
	assert.True(t, errors.As(err, &scriptErr))

	// The sibling ran to completion
	assert.FileExists(t, filepath.Join(ws.Root, "build", "libcore.a"))
	_, ok, err := cache.ReadRecord(ws.Resolve(ws.Targets[1].CacheFile()))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoFileExists(t, ws.Resolve(ws.Targets[0].CacheFile()))
}

func TestOrchestrator_ReportsEveryFailure(t *testing.T) {
	ws := newWorkspace(t)
	ws.Targets[0].Compiler = "broken-cc"
	ws.Targets[1].Compiler = "broken-cc"
	o := newOrchestrator(t, ws, &testutil.RecordingRunner{Handler: fakeToolchain}, Options{})

	err := o.BuildAll(quietContext())

	var buildErr *BuildFailedError
	require.True(t, errors.As(err, &buildErr))
	require.Len(t, buildErr.Failures, 2)
	assert.Equal(t, "app", buildErr.Failures[0].Target)
	assert.Equal(t, "core", buildErr.Failures[1].Target)
}

func TestOrchestrator_DisabledTargetsNeverSpawn(t *testing.T) {
	ws := newWorkspace(t)
	disabled := false
	ws.Targets[0].Enabled = &disabled

	var built []string
	var mu sync.Mutex

	o := &Orchestrator{ws: ws, builder: buildFunc(func(_ context.Context, target config.Target) (Outcome, error) {
		mu.Lock()
		built = append(built, target.Name)
		mu.Unlock()

		return OutcomeBuilt, nil
	})}

	require.NoError(t, o.BuildAll(quietContext()))
	assert.Equal(t, []string{"core"}, built)
}

func TestOrchestrator_FetchFirstErrorInSpawnOrder(t *testing.T) {
	ws := &config.Workspace{
		Dependencies: []config.Dependency{
			{Name: "ok", Source: config.SourceGit},
			{Name: "slow", Source: config.SourceGit},
			{Name: "fast", Source: config.SourceGit},
		},
	}

	var fetched atomic.Int32
	o := &Orchestrator{ws: ws, fetcher: fetchFunc(func(_ context.Context, dep config.Dependency) error {
		fetched.Add(1)

		switch dep.Name {
		case "slow":
			time.Sleep(50 * time.Millisecond)
			return &fetch.CloneFailedError{Name: "slow", Err: errors.New("exit status 128")}
		case "fast":
			return &fetch.CloneFailedError{Name: "fast", Err: errors.New("exit status 128")}
		default:
			return nil
		}
	})}

	err := o.FetchAll(quietContext())

	var cloneErr *fetch.CloneFailedError
	require.True(t, errors.As(err, &cloneErr))
	assert.Equal(t, "slow", cloneErr.Name)
	assert.Equal(t, int32(3), fetched.Load())
}

func TestOrchestrator_FetchFailureSkipsBuild(t *testing.T) {
	ws := newWorkspace(t)
	runner := &testutil.RecordingRunner{Handler: func(cmd compiler.Command) error {
		if cmd.Path == "git" {
			return errors.New("exit status 128")
		}

		return fakeToolchain(cmd)
	}}
	o := newOrchestrator(t, ws, runner, Options{})

	err := o.Run(quietContext())

	var cloneErr *fetch.CloneFailedError
	require.True(t, errors.As(err, &cloneErr))
	assert.Equal(t, "zlib", cloneErr.Name)
	assert.Empty(t, runner.CallsTo("cc"))
	assert.Empty(t, runner.Scripts())
}

func TestOrchestrator_PanicBecomesError(t *testing.T) {
	ws := newWorkspace(t)

	t.Run("build unit", func(t *testing.T) {
		o := &Orchestrator{ws: ws, builder: buildFunc(func(_ context.Context, target config.Target) (Outcome, error) {
			if target.Name == "app" {
				panic("boom")
			}

			return OutcomeBuilt, nil
		})}

		err := o.BuildAll(quietContext())

		var buildErr *BuildFailedError
		require.True(t, errors.As(err, &buildErr))
		require.Len(t, buildErr.Failures, 1)

		var panicErr *UnitPanickedError
		require.True(t, errors.As(err, &panicErr))
		assert.Equal(t, "target app", panicErr.Unit)
		assert.Equal(t, "boom", panicErr.Value)
		assert.NotEmpty(t, panicErr.Stack)
	})

	t.Run("fetch unit", func(t *testing.T) {
		o := &Orchestrator{ws: ws, fetcher: fetchFunc(func(context.Context, config.Dependency) error {
			panic("boom")
		})}

		err := o.FetchAll(quietContext())

		var panicErr *UnitPanickedError
		require.True(t, errors.As(err, &panicErr))
		assert.Equal(t, "dependency zlib", panicErr.Unit)
	})
}

func TestOrchestrator_UnitsRunConcurrently(t *testing.T) {
	ws := newWorkspace(t)

	var started sync.WaitGroup
	started.Add(len(ws.Targets))
	all := make(chan struct{})
	go func() {
		started.Wait()
		close(all)
	}()

	o := &Orchestrator{ws: ws, builder: buildFunc(func(context.Context, config.Target) (Outcome, error) {
		started.Done()

		select {
		case <-all:
			return OutcomeBuilt, nil
		case <-time.After(5 * time.Second):
			return OutcomeFailed, errors.New("targets did not overlap")
		}
	})}

	require.NoError(t, o.BuildAll(quietContext()))
}

func TestOrchestrator_JobsLimit(t *testing.T) {
	ws := newWorkspace(t)
	for i := range 4 {
		ws.Targets = append(ws.Targets, config.Target{Name: "extra" + string(rune('a'+i))})
	}

	var running, peak atomic.Int32
	o := &Orchestrator{ws: ws, jobs: 2, builder: buildFunc(func(context.Context, config.Target) (Outcome, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		time.Sleep(10 * time.Millisecond)
		running.Add(-1)

		return OutcomeBuilt, nil
	})}

	require.NoError(t, o.BuildAll(quietContext()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestOrchestrator_Clean(t *testing.T) {
	ws := newWorkspace(t)
	ws.Dependencies = nil
	disabled := false
	ws.Targets = append(ws.Targets, config.Target{
		Name:     "tool",
		Kind:     config.KindExecutable,
		OutDir:   "tools",
		Sources:  []string{"main.c"},
		Compiler: "cc",
		Enabled:  &disabled,
	})

	o := newOrchestrator(t, ws, &testutil.RecordingRunner{Handler: fakeToolchain}, Options{})
	require.NoError(t, o.Run(quietContext()))

	// A stale record of a disabled target is removed too
	require.NoError(t, os.MkdirAll(filepath.Join(ws.Root, "tools"), 0o755))
	require.NoError(t, cache.WriteRecord(ws.Resolve(ws.Targets[2].CacheFile()), 1))

	n, err := o.history.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, o.Clean(quietContext()))

	for _, target := range ws.Targets {
		assert.NoFileExists(t, ws.Resolve(target.CacheFile()))
	}

	assert.FileExists(t, filepath.Join(ws.Root, "build", "app"))

	n, err = o.history.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
