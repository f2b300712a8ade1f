package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/Norgate-AV/constructor/internal/config"
	"github.com/Norgate-AV/constructor/internal/ctxlog"
)

// Command is an external process invocation
type Command struct {
	Path string
	Args []string

	// Dir is the working directory, empty for the current one
	Dir string
}

// String renders the command line for logs
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, s := range append([]string{c.Path}, c.Args...) {
		if s == "" || strings.ContainsAny(s, " \t\"'") {
			s = strconv.Quote(s)
		}

		parts = append(parts, s)
	}

	return strings.Join(parts, " ")
}

// Invocation is a synthesized compiler command and the artifact it produces
type Invocation struct {
	Command

	Output string
}

// UnknownKindError is returned for a target kind the synthesizer cannot name an output for
type UnknownKindError struct {
	Target string
	Kind   string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown target kind %q for target %s", e.Kind, e.Target)
}

// OutputPath returns the artifact path of a target.
//
// Dynamic libraries always get the .so suffix, macOS targets included.
func OutputPath(target config.Target) (string, error) {
	switch target.Kind {
	case config.KindExecutable:
		return filepath.Join(target.OutDir, target.Name), nil
	case config.KindStaticLib:
		return filepath.Join(target.OutDir, "lib"+target.Name+".a"), nil
	case config.KindDynamicLib:
		return filepath.Join(target.OutDir, "lib"+target.Name+".so"), nil
	default:
		return "", &UnknownKindError{Target: target.Name, Kind: target.Kind}
	}
}

// Synthesize builds the compiler command line for a target.
// The argument order is fixed: compiler flags, defines, includes, sources,
// macOS frameworks, linker flags, then the output.
func Synthesize(target config.Target) (*Invocation, error) {
	output, err := OutputPath(target)
	if err != nil {
		return nil, err
	}

	var args []string
	args = append(args, target.CompilerFlags...)

	for _, define := range target.Defines {
		args = append(args, "-D"+define)
	}

	for _, include := range target.Includes {
		args = append(args, "-I", include)
	}

	args = append(args, target.Sources...)

	if target.IsMacOS() {
		for _, framework := range target.Frameworks {
			args = append(args, "-framework", framework)
		}
	}

	args = append(args, target.LinkerFlags...)
	args = append(args, "-o", output)

	return &Invocation{
		Command: Command{
			Path: target.Compiler,
			Args: args,
		},
		Output: output,
	}, nil
}

// EnsureOutputDir creates dir if needed. Failures are logged and never
// returned: the compiler reports a missing directory on its own.
func EnsureOutputDir(ctx context.Context, dir string) {
	logger := ctxlog.FromContext(ctx)

	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		logger.Debug("output directory already exists", "dir", dir)
		return
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("failed to create output directory", "dir", dir, "error", err)
		return
	}

	logger.Debug("output directory created", "dir", dir)
}

// ShellCommand returns the command running script through the platform shell
func ShellCommand(script, dir string) Command {
	if runtime.GOOS == "windows" {
		return Command{Path: "cmd", Args: []string{"/C", script}, Dir: dir}
	}

	return Command{Path: "sh", Args: []string{"-c", script}, Dir: dir}
}
