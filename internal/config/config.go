package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default configuration values
const (
	DefaultConfigPath = "WORKSPACE.constructor"
	DefaultDepsDir    = "deps"
	DefaultCacheDir   = ".constructor-cache"
	DefaultJobs       = 0
	DefaultVerbose    = false
)

// Options holds the run options for constructor
type Options struct {
	// Path to the project description file
	ConfigPath string

	// Clear fingerprint records instead of building
	Clean bool

	// Bypass fingerprint comparison and re-fetch dependencies
	Force bool

	// Maximum concurrent units per phase, 0 for unbounded
	Jobs int

	// Directory holding fetched dependencies, relative to the workspace root
	DepsDir string

	// Directory holding the fingerprint history database, relative to the workspace root
	CacheDir string

	// Enable verbose output
	Verbose bool
}

func Load() (*Options, error) {
	opts := &Options{
		ConfigPath: viper.GetString("config"),
		Clean:      viper.GetBool("clean"),
		Force:      viper.GetBool("force"),
		Jobs:       viper.GetInt("jobs"),
		DepsDir:    viper.GetString("deps_dir"),
		CacheDir:   viper.GetString("cache_dir"),
		Verbose:    viper.GetBool("verbose"),
	}

	// Apply defaults if not set
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}

	if opts.DepsDir == "" {
		opts.DepsDir = DefaultDepsDir
	}

	if opts.CacheDir == "" {
		opts.CacheDir = DefaultCacheDir
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return opts, nil
}

func (o *Options) Validate() error {
	if o.Jobs < 0 {
		return fmt.Errorf("invalid jobs count: %d", o.Jobs)
	}

	// A bare file name that is not in the working directory is searched for upwards
	if _, err := os.Stat(o.ConfigPath); os.IsNotExist(err) && filepath.Base(o.ConfigPath) == o.ConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			if found := FindWorkspace(cwd, o.ConfigPath); found != "" {
				o.ConfigPath = found
			}
		}
	}

	abs, err := filepath.Abs(o.ConfigPath)
	if err != nil {
		return fmt.Errorf("invalid config path: %v", err)
	}

	o.ConfigPath = abs

	return nil
}
