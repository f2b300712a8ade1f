package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// FormatFor returns the viper config type for a project file path
func FormatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".constructor":
		return "toml", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", &FormatError{Path: path}
	}
}

// LoadWorkspace reads, decodes and validates a project file
func LoadWorkspace(path string) (*Workspace, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	ws, err := ParseWorkspace(data, format)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	ws.Root = filepath.Dir(absPath)

	return ws, nil
}

// ParseWorkspace decodes a project description in the given viper format
func ParseWorkspace(data []byte, format string) (*Workspace, error) {
	v := viper.New()
	v.SetConfigType(format)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	var ws Workspace
	if err := v.Unmarshal(&ws); err != nil {
		return nil, err
	}

	if err := ws.Validate(); err != nil {
		return nil, err
	}

	return &ws, nil
}
