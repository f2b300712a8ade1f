package compiler

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Runner executes external commands
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// Commander interface for testing
type Commander interface {
	Run() error
}

// ExecRunner runs commands as child processes
type ExecRunner struct {
	execCommand func(name string, args ...string) Commander

	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a runner forwarding process output to the console
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		execCommand: func(name string, args ...string) Commander {
			return exec.Command(name, args...)
		},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run starts the command and waits for it. A non-zero exit is returned as *exec.ExitError.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	c := r.execCommand(cmd.Path, cmd.Args...)
	if ec, ok := c.(*exec.Cmd); ok {
		ec.Dir = cmd.Dir
		ec.Stdout = r.Stdout
		ec.Stderr = r.Stderr
	}

	return c.Run()
}

// ExitCode returns the exit status carried by err, or -1 when the process did not exit normally
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}
