package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/constructor/internal/ctxlog"
	"github.com/Norgate-AV/constructor/internal/makefile"
)

func newMakefileCmd() *cobra.Command {
	makefileCmd := &cobra.Command{
		Use:          "makefile",
		Short:        "Generate a Makefile",
		Long:         `Write a GNU Makefile equivalent to the workspace, next to the project file unless an absolute output path is given.`,
		RunE:         runMakefile,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
	}

	makefileCmd.Flags().StringP("output", "o", makefile.DefaultPath, "Makefile path")
	makefileCmd.Flags().Bool("shared-vars", false, "Use one set of variable names for all targets")

	return makefileCmd
}

func runMakefile(cmd *cobra.Command, _ []string) error {
	opts, ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	shared, _ := cmd.Flags().GetBool("shared-vars")
	path := ws.Resolve(output)

	if err := makefile.Write(ws, path, makefile.Options{SharedVariables: shared}); err != nil {
		return err
	}

	ctxlog.FromContext(commandContext(cmd, opts)).Info("makefile written", "path", path)

	return nil
}
