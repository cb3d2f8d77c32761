package registry

import (
	"time"

	"github.com/specialistvlad/gridflow/internal/task"
)

// Spec is everything a factory needs to construct one task instance.
type Spec struct {
	// Name is the instance name from the workflow file.
	Name    string
	Params  task.Params
	Inputs  map[string]task.OutputSpec
	Retries uint64
	Timeout time.Duration
}

// Options converts the execution policy of s into task options.
func (s Spec) Options() []task.Option {
	opts := []task.Option{task.WithName(s.Name)}
	if s.Retries > 0 {
		opts = append(opts, task.WithRetries(s.Retries))
	}
	if s.Timeout > 0 {
		opts = append(opts, task.WithTimeout(s.Timeout))
	}
	return opts
}

// Factory constructs a task from a validated Spec.
type Factory func(spec Spec) (task.Task, error)

// Field describes one named input or parameter of a kind.
type Field struct {
	Name        string
	Required    bool
	Description string
}

// RegisteredKind holds the Go parts of a task kind.
type RegisteredKind struct {
	Description string
	Inputs      []Field
	Params      []Field
	// Outputs lists the output names the kind declares.
	Outputs []string
	// External kinds are never run; their outputs must already exist.
	External bool
	New      Factory
}
