package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskExecution marks a failure reported by a task itself.
	ErrTaskExecution = errors.New("task execution failed")
	// ErrMissingInput means a task became ready while one of its inputs does
	// not exist. It indicates a broken invariant and aborts the run.
	ErrMissingInput = errors.New("missing input")
	// ErrUpstreamFailed is recorded on nodes skipped because a dependency failed.
	ErrUpstreamFailed = errors.New("upstream failed")
	// ErrOutputsMissing is returned in strict mode when Run succeeds without
	// producing every declared output.
	ErrOutputsMissing = errors.New("declared outputs missing after run")
)

// TaskError is the error recorded for a Failed node.
type TaskError struct {
	ID       string
	Name     string
	Kind     string
	Attempts int
	Err      error
}

func (e *TaskError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("task %s (%s) failed after %d attempts: %v", e.Name, e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("task %s (%s) failed: %v", e.Name, e.Kind, e.Err)
}

func (e *TaskError) Unwrap() []error {
	return []error{ErrTaskExecution, e.Err}
}
