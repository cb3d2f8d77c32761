package task

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/gridflow/internal/target"
)

// Task is one unit of work in a workflow.
type Task interface {
	// Kind is the task type name, e.g. "split_file".
	Kind() string
	Params() Params
	// Dependencies maps input names to outputs of upstream tasks.
	Dependencies() map[string]OutputSpec
	// DeclaredOutputs computes the output targets from the resolved inputs.
	// It must be pure: it is called before any upstream task has run.
	DeclaredOutputs(inputs Targets) (Targets, error)
	// Run produces the outputs. Every input exists when Run is called.
	Run(ctx context.Context, inputs, outputs Targets) error
}

// External marks tasks whose outputs are produced outside the engine. The
// scheduler never calls Run on them; a missing output is a failure.
type External interface {
	External() bool
}

// RetryPolicy lets a task ask for retries and a per-attempt timeout.
type RetryPolicy interface {
	MaxRetries() uint64
	Timeout() time.Duration
}

// Named is implemented by tasks that carry a human readable instance name.
type Named interface {
	Name() string
}

// OutputSpec references the named output of a specific task instance.
type OutputSpec struct {
	Task   Task
	Output string
}

// Out is shorthand for OutputSpec{Task: t, Output: name}.
func Out(t Task, name string) OutputSpec {
	return OutputSpec{Task: t, Output: name}
}

// Resolve picks the referenced output out of the upstream task's declared outputs.
func (o OutputSpec) Resolve(outputs Targets) (target.Target, error) {
	tg, ok := outputs[o.Output]
	if !ok || tg == nil {
		return nil, fmt.Errorf("%w: %s has no output %q (declares %v)", ErrUnresolvedOutput, NameOf(o.Task), o.Output, outputs.Names())
	}
	return tg, nil
}

// IsComplete reports whether every declared output exists. A task that
// declares no outputs is never complete.
func IsComplete(outputs Targets) (bool, error) {
	if len(outputs) == 0 {
		return false, nil
	}
	missing, err := target.MissingOf(outputs)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// IsExternal reports whether t is an External task.
func IsExternal(t Task) bool {
	e, ok := t.(External)
	return ok && e.External()
}

// NameOf returns the instance name of t when it has one, otherwise its kind.
func NameOf(t Task) string {
	if t == nil {
		return "<nil>"
	}
	if n, ok := t.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return t.Kind()
}
