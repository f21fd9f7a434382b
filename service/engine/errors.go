package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned for unknown workflow, version or execution ids.
	ErrNotFound = errors.New("engine: not found")

	// ErrNotActive is returned when executing a workflow whose status is not
	// active.
	ErrNotActive = errors.New("engine: workflow is not active")

	// ErrFinished is returned when cancelling or resuming an execution that
	// already reached a terminal state.
	ErrFinished = errors.New("engine: execution already finished")
)

// ValidationError aggregates the structural issues of a rejected definition.
type ValidationError struct {
	Issues []error
}

// Error implements error.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Error())
	}
	return fmt.Sprintf("engine: invalid definition: %s", strings.Join(parts, "; "))
}

// NewValidationError wraps validation issues, nil when there are none.
func NewValidationError(issues []error) error {
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
