package fetch

import "fmt"

// CloneFailedError is returned when cloning a git dependency fails
type CloneFailedError struct {
	Name string
	Err  error
}

func (e *CloneFailedError) Error() string {
	return fmt.Sprintf("failed to clone dependency: %s: %v", e.Name, e.Err)
}

func (e *CloneFailedError) Unwrap() error {
	return e.Err
}

// UpdateFailedError is returned when pulling an existing git dependency fails
type UpdateFailedError struct {
	Name string
	Err  error
}

func (e *UpdateFailedError) Error() string {
	return fmt.Sprintf("failed to update dependency: %s: %v", e.Name, e.Err)
}

func (e *UpdateFailedError) Unwrap() error {
	return e.Err
}

// NotAGitRepoError is returned when a dependency directory exists but is not a git checkout
type NotAGitRepoError struct {
	Name string
	Path string
}

func (e *NotAGitRepoError) Error() string {
	return fmt.Sprintf("dependency %s: directory '%s' exists but is not a git repository, remove it manually or specify a different location", e.Name, e.Path)
}
