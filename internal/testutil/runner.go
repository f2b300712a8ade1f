// Package testutil holds shared fakes for package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/Norgate-AV/constructor/internal/compiler"
)

// RecordingRunner is a compiler.Runner that records every command instead of
// starting a process. Handler, when set, decides the outcome of each command.
type RecordingRunner struct {
	Handler func(cmd compiler.Command) error

	mu    sync.Mutex
	calls []compiler.Command
}

// Run records cmd and returns the handler's result
func (r *RecordingRunner) Run(_ context.Context, cmd compiler.Command) error {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	r.mu.Unlock()

	if r.Handler != nil {
		return r.Handler(cmd)
	}

	return nil
}

// Calls returns a copy of the recorded commands in call order
func (r *RecordingRunner) Calls() []compiler.Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]compiler.Command, len(r.calls))
	copy(calls, r.calls)

	return calls
}

// CallsTo returns the recorded commands whose executable is path
func (r *RecordingRunner) CallsTo(path string) []compiler.Command {
	var matched []compiler.Command
	for _, c := range r.Calls() {
		if c.Path == path {
			matched = append(matched, c)
		}
	}

	return matched
}

// Scripts returns the scripts of recorded shell hook commands, in call order
func (r *RecordingRunner) Scripts() []string {
	var scripts []string
	for _, c := range r.Calls() {
		if (c.Path == "sh" || c.Path == "cmd") && len(c.Args) == 2 {
			scripts = append(scripts, c.Args[1])
		}
	}

	return scripts
}
