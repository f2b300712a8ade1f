package cmd

import (
	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "clean",
		Short:        "Remove fingerprint records",
		Long:         `Delete the cache record of every target so that the next build recompiles everything. Build outputs are left in place.`,
		RunE:         runClean,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
	}
}

func runClean(cmd *cobra.Command, _ []string) error {
	opts, ws, err := loadWorkspace(cmd)
	if err != nil {
		return err
	}

	o, err := newOrchestrator(ws, opts)
	if err != nil {
		return err
	}
	defer o.Close()

	return o.Clean(commandContext(cmd, opts))
}
