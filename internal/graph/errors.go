package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/gridflow/internal/task"
)

var (
	ErrCyclicDependency = task.ErrCyclicDependency
	ErrUnresolvedOutput = task.ErrUnresolvedOutput
	ErrInvalidTask      = task.ErrInvalidTask
	// ErrDuplicateOutput is returned when two distinct nodes declare the same
	// output locator.
	ErrDuplicateOutput = errors.New("duplicate output")
)

// BuildError describes why a graph could not be built.
type BuildError struct {
	// Kind is one of the sentinel errors of this package.
	Kind error
	// Task is the name of the task being processed.
	Task string
	// Path is the dependency path from the root, set for cycles.
	Path []string
	Err  error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "building graph: %v", e.Kind)
	if e.Task != "" {
		fmt.Fprintf(&b, " at task %q", e.Task)
	}
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Path, " -> "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *BuildError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
