package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/constructor/internal/builder"
	"github.com/Norgate-AV/constructor/internal/compiler"
	"github.com/Norgate-AV/constructor/internal/config"
	"github.com/Norgate-AV/constructor/internal/ctxlog"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "build",
		Short:        "Build the workspace",
		Long:         `Fetch every dependency, then build every enabled target of the workspace.`,
		RunE:         runBuild,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
	}
}

// newRunner starts the processes of a run; replaced in tests
var newRunner = func() compiler.Runner {
	return compiler.NewExecRunner()
}

func runBuild(cmd *cobra.Command, _ []string) error {
	opts, ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd, opts)

	o, err := newOrchestrator(ws, opts)
	if err != nil {
		return err
	}
	defer o.Close()

	if opts.Clean {
		return o.Clean(ctx)
	}

	return o.Run(ctx)
}

// loadWorkspace resolves the run options and loads the project file they point at
func loadWorkspace(cmd *cobra.Command) (*config.Options, *config.Workspace, error) {
	opts, err := config.NewLoader().LoadForBuild(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load options: %w", err)
	}

	ws, err := config.LoadWorkspace(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	return opts, ws, nil
}

func newOrchestrator(ws *config.Workspace, opts *config.Options) (*builder.Orchestrator, error) {
	return builder.New(ws, newRunner(), builder.Options{
		Force:    opts.Force,
		Jobs:     opts.Jobs,
		DepsDir:  opts.DepsDir,
		CacheDir: opts.CacheDir,
	})
}

// commandContext attaches the CLI logger to the command's context
func commandContext(cmd *cobra.Command, opts *config.Options) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := ctxlog.New(cmd.ErrOrStderr(), opts.Verbose)
	logger.Debug("loaded workspace options",
		"config", opts.ConfigPath,
		"force", opts.Force,
		"jobs", opts.Jobs,
		"deps_dir", opts.DepsDir,
		"cache_dir", opts.CacheDir,
	)

	return ctxlog.WithLogger(ctx, logger)
}
