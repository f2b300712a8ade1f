package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Loader handles option loading from the user config file and command flags
type Loader struct {
	// configDir overrides os.UserConfigDir, for tests
	configDir string
}

// NewLoader creates a new option loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadForBuild loads the options for a build, clean or makefile run
func (l *Loader) LoadForBuild(cmd *cobra.Command) (*Options, error) {
	l.setupViperDefaults()
	l.loadGlobalConfig()
	l.bindCommandFlags(cmd)

	return Load()
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("config", DefaultConfigPath)
	viper.SetDefault("deps_dir", DefaultDepsDir)
	viper.SetDefault("cache_dir", DefaultCacheDir)
	viper.SetDefault("jobs", DefaultJobs)
	viper.SetDefault("verbose", DefaultVerbose)
}

// loadGlobalConfig loads the user's constructor config, if any
func (l *Loader) loadGlobalConfig() {
	dir := l.configDir
	if dir == "" {
		userDir, err := os.UserConfigDir()
		if err != nil {
			return
		}

		dir = userDir
	}

	globalDir := filepath.Join(dir, "constructor")

	for _, ext := range []string{"yml", "yaml", "json", "toml"} {
		globalPath := filepath.Join(globalDir, "config."+ext)

		if _, err := os.Stat(globalPath); err == nil {
			viper.SetConfigFile(globalPath)

			if err := viper.ReadInConfig(); err == nil {
				break
			}
		}
	}
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	for key, flag := range map[string]string{
		"config":    "config",
		"clean":     "clean",
		"force":     "force",
		"jobs":      "jobs",
		"deps_dir":  "deps-dir",
		"cache_dir": "cache-dir",
		"verbose":   "verbose",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}
