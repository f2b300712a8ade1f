package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().StringP("config", "c", DefaultConfigPath, "Project file")
	cmd.Flags().Bool("clean", false, "Clean")
	cmd.Flags().Bool("force", false, "Force")
	cmd.Flags().IntP("jobs", "j", 0, "Jobs")
	cmd.Flags().String("deps-dir", DefaultDepsDir, "Deps dir")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose output")

	return cmd
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	assert.NotNil(t, loader)
}

func TestLoader_SetupViperDefaults(t *testing.T) {
	viper.Reset()
	loader := NewLoader()
	loader.setupViperDefaults()

	assert.Equal(t, DefaultConfigPath, viper.GetString("config"))
	assert.Equal(t, DefaultDepsDir, viper.GetString("deps_dir"))
	assert.Equal(t, DefaultCacheDir, viper.GetString("cache_dir"))
	assert.Equal(t, 0, viper.GetInt("jobs"))
	assert.Equal(t, false, viper.GetBool("verbose"))
}

func TestLoader_LoadGlobalConfig(t *testing.T) {
	tempDir := t.TempDir()
	globalDir := filepath.Join(tempDir, "constructor")
	require.NoError(t, os.Mkdir(globalDir, 0o755))

	t.Run("loads yaml config", func(t *testing.T) {
		viper.Reset()
		configPath := filepath.Join(globalDir, "config.yml")
		require.NoError(t, os.WriteFile(configPath, []byte("jobs: 3\ndeps_dir: vendor\n"), 0o644))
		defer os.Remove(configPath)

		loader := &Loader{configDir: tempDir}
		loader.loadGlobalConfig()

		assert.Equal(t, 3, viper.GetInt("jobs"))
		assert.Equal(t, "vendor", viper.GetString("deps_dir"))
	})

	t.Run("loads toml config", func(t *testing.T) {
		viper.Reset()
		configPath := filepath.Join(globalDir, "config.toml")
		require.NoError(t, os.WriteFile(configPath, []byte("verbose = true\n"), 0o644))
		defer os.Remove(configPath)

		loader := &Loader{configDir: tempDir}
		loader.loadGlobalConfig()

		assert.True(t, viper.GetBool("verbose"))
	})

	t.Run("handles missing config gracefully", func(t *testing.T) {
		viper.Reset()

		loader := &Loader{configDir: t.TempDir()}
		assert.NotPanics(t, func() {
			loader.loadGlobalConfig()
		})
	})
}

func TestLoader_BindCommandFlags(t *testing.T) {
	viper.Reset()

	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("config", "other.yml"))
	require.NoError(t, cmd.Flags().Set("force", "true"))
	require.NoError(t, cmd.Flags().Set("jobs", "2"))
	require.NoError(t, cmd.Flags().Set("deps-dir", "third_party"))

	loader := NewLoader()
	loader.bindCommandFlags(cmd)

	assert.Equal(t, "other.yml", viper.GetString("config"))
	assert.True(t, viper.GetBool("force"))
	assert.Equal(t, 2, viper.GetInt("jobs"))
	assert.Equal(t, "third_party", viper.GetString("deps_dir"))
	assert.False(t, viper.GetBool("clean"))
}

func TestLoader_LoadForBuild_Integration(t *testing.T) {
	t.Run("flags override global config", func(t *testing.T) {
		viper.Reset()

		tempDir := t.TempDir()
		globalDir := filepath.Join(tempDir, "constructor")
		require.NoError(t, os.Mkdir(globalDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.yml"), []byte("jobs: 8\nverbose: true\n"), 0o644))

		cmd := newTestCommand()
		require.NoError(t, cmd.Flags().Set("jobs", "1"))

		loader := &Loader{configDir: tempDir}
		opts, err := loader.LoadForBuild(cmd)
		require.NoError(t, err)

		// Flag value should win
		assert.Equal(t, 1, opts.Jobs)
		// Global config fills what the flags leave unset
		assert.True(t, opts.Verbose)
		assert.True(t, filepath.IsAbs(opts.ConfigPath))
	})
}
