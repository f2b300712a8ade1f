package config

import "fmt"

// FormatError is returned for a project file whose extension is not supported
type FormatError struct {
	Path string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported config file format: %s", e.Path)
}

// ParseError is returned when a project file cannot be read, decoded or validated
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
