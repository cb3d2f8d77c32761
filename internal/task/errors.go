package task

import "errors"

var (
	// ErrUnresolvedOutput is returned when an OutputSpec names an output its
	// task does not declare.
	ErrUnresolvedOutput = errors.New("unresolved output")
	// ErrCyclicDependency is returned when following dependencies leads back to
	// a task already on the path.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrInvalidTask is returned for tasks that cannot take part in a graph,
	// e.g. nil tasks or tasks that are not comparable.
	ErrInvalidTask = errors.New("invalid task")
)
