package builder

import (
	"fmt"
	"strings"
)

// Phase names a hook phase
type Phase string

const (
	PhasePreBuild  Phase = "pre-build"
	PhasePostBuild Phase = "post-build"
)

// ScriptFailedError is returned when a hook exits non-zero or cannot start
type ScriptFailedError struct {
	Phase  Phase
	Script string
	Err    error
}

func (e *ScriptFailedError) Error() string {
	return fmt.Sprintf("%s script failed: %s: %v", e.Phase, e.Script, e.Err)
}

func (e *ScriptFailedError) Unwrap() error {
	return e.Err
}

// CompileFailedError is returned when the compiler invocation fails
type CompileFailedError struct {
	Target string
	Err    error
}

func (e *CompileFailedError) Error() string {
	return fmt.Sprintf("failed to build target: %s: %v", e.Target, e.Err)
}

func (e *CompileFailedError) Unwrap() error {
	return e.Err
}

// UnitPanickedError is returned for a fetch or build unit that panicked
type UnitPanickedError struct {
	Unit  string
	Value any
	Stack []byte
}

func (e *UnitPanickedError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Unit, e.Value)
}

// TargetFailure pairs a failed target with its error
type TargetFailure struct {
	Target string
	Err    error
}

// BuildFailedError aggregates every target failure of a build phase
type BuildFailedError struct {
	Failures []TargetFailure
}

func (e *BuildFailedError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Target
	}

	return fmt.Sprintf("some targets failed to build: %s", strings.Join(names, ", "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As
func (e *BuildFailedError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}

	return errs
}
