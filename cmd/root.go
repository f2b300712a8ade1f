package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Norgate-AV/constructor/internal/codes"
	"github.com/Norgate-AV/constructor/internal/config"
	"github.com/Norgate-AV/constructor/internal/version"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "constructor",
		Short:        "Declarative native build orchestrator",
		Long:         `Fetch dependencies and build every target of a constructor workspace, skipping targets whose inputs have not changed.`,
		RunE:         runBuild,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "Path to the project file")
	rootCmd.PersistentFlags().Bool("clean", false, "Remove fingerprint records instead of building")
	rootCmd.PersistentFlags().Bool("force", false, "Rebuild every target and re-clone git dependencies")
	rootCmd.PersistentFlags().IntP("jobs", "j", config.DefaultJobs, "Maximum concurrent fetches or builds (0 for no limit)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("deps-dir", config.DefaultDepsDir, "Directory for fetched dependencies")
	rootCmd.PersistentFlags().String("cache-dir", config.DefaultCacheDir, "Directory for the fingerprint history")

	rootCmd.AddCommand(newBuildCmd(), newCleanCmd(), newMakefileCmd())

	return rootCmd
}

func Execute() {
	viper.SetDefault("config", config.DefaultConfigPath)
	viper.SetDefault("verbose", false)

	err := newRootCmd().ExecuteContext(context.Background())
	if err != nil {
		os.Exit(codes.ExitCode(err))
	}
}
