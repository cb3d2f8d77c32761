// Package existing_data provides a task kind for input files that are
// produced outside the workflow.
package existing_data

import (
	"context"
	"fmt"

	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
)

// Kind is the task kind name used in workflow files.
const Kind = "existing_data"

// DefaultOutput is the output name used when none is given.
const DefaultOutput = "acgt"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Task is an external task: its single output must already exist and it is
// never run.
type Task struct {
	task.Base
	path   string
	output string
}

// New returns a task whose output named output points at path.
func New(path, output string, opts ...task.Option) *Task {
	if output == "" {
		output = DefaultOutput
	}
	params := task.StringParams(map[string]string{"path": path, "output": output})
	return &Task{
		Base:   task.NewBase(Kind, params, nil, opts...),
		path:   path,
		output: output,
	}
}

func (t *Task) External() bool { return true }

func (t *Task) DeclaredOutputs(task.Targets) (task.Targets, error) {
	return task.Targets{t.output: target.NewFile(t.output, t.path)}, nil
}

func (t *Task) Run(context.Context, task.Targets, task.Targets) error {
	return fmt.Errorf("%s is external and cannot be run; provide %s", Kind, t.path)
}

func newTask(spec registry.Spec) (task.Task, error) {
	path, err := spec.Params.RequiredString("path")
	if err != nil {
		return nil, err
	}
	output, err := spec.Params.String("output", DefaultOutput)
	if err != nil {
		return nil, err
	}
	return New(path, output, spec.Options()...), nil
}

// Register registers the task kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(Kind, &registry.RegisteredKind{
		Description: "A file that already exists; the workflow never produces it.",
		Params: []registry.Field{
			{Name: "path", Required: true, Description: "Location of the file."},
			{Name: "output", Description: "Output name, default " + DefaultOutput + "."},
		},
		External: true,
		New:      newTask,
	})
}
