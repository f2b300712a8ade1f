package codes

import (
	"errors"

	"github.com/Norgate-AV/constructor/internal/cache"
	"github.com/Norgate-AV/constructor/internal/config"
	"github.com/Norgate-AV/constructor/internal/fetch"
)

// Process exit codes
const (
	Success     = 0
	BuildFailed = 1
	ConfigError = 2
	FetchFailed = 3
	CacheError  = 4
)

// ErrorCodes maps constructor exit codes to their descriptions
var ErrorCodes = map[int]string{
	Success:     "Success",
	BuildFailed: "Build failed",
	ConfigError: "Invalid configuration",
	FetchFailed: "Dependency fetch failed",
	CacheError:  "Cache read or write failed",
}

// IsSuccess returns true if the exit code indicates a successful run
func IsSuccess(code int) bool {
	return code == Success
}

// GetErrorMessage returns the description for a given exit code, or a generic message if unknown
func GetErrorMessage(code int) string {
	if msg, ok := ErrorCodes[code]; ok {
		return msg
	}

	return "Unknown error"
}

// ExitCode picks the exit code for the error a command returned.
// Anything not recognised is a build failure.
func ExitCode(err error) int {
	if err == nil {
		return Success
	}

	var (
		formatErr *config.FormatError
		parseErr  *config.ParseError
		cloneErr  *fetch.CloneFailedError
		updateErr *fetch.UpdateFailedError
		notGitErr *fetch.NotAGitRepoError
		ioErr     *cache.IOError
	)

	switch {
	case errors.As(err, &formatErr), errors.As(err, &parseErr):
		return ConfigError
	case errors.As(err, &cloneErr), errors.As(err, &updateErr), errors.As(err, &notGitErr):
		return FetchFailed
	case errors.As(err, &ioErr):
		return CacheError
	default:
		return BuildFailed
	}
}
