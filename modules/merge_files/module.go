// Package merge_files provides a task kind that concatenates two files.
package merge_files

import (
	"context"
	"fmt"
	"io"

	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
)

const Kind = "merge_files"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Task writes part1 followed by part2 to <part1>.merged.
type Task struct {
	task.Base
}

func New(part1, part2 task.OutputSpec, opts ...task.Option) *Task {
	deps := map[string]task.OutputSpec{"part1": part1, "part2": part2}
	return &Task{Base: task.NewBase(Kind, nil, deps, opts...)}
}

func (t *Task) DeclaredOutputs(inputs task.Targets) (task.Targets, error) {
	p1, err := inputs.Get("part1")
	if err != nil {
		return nil, err
	}
	return task.Targets{"merged": target.NewFile("merged", p1.Locator()+".merged")}, nil
}

func (t *Task) Run(_ context.Context, inputs, outputs task.Targets) error {
	out, err := outputs.Get("merged")
	if err != nil {
		return err
	}
	return target.WriteFile(out, func(w io.Writer) error {
		for _, name := range []string{"part1", "part2"} {
			in, err := inputs.Get(name)
			if err != nil {
				return err
			}
			if err := appendTo(w, in); err != nil {
				return fmt.Errorf("reading %s: %w", in.Locator(), err)
			}
		}
		return nil
	})
}

func appendTo(w io.Writer, t target.Target) error {
	rc, err := t.OpenForRead()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(w, rc)
	return err
}

// Register registers the task kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(Kind, &registry.RegisteredKind{
		Description: "Concatenates part1 and part2 into <part1>.merged.",
		Inputs: []registry.Field{
			{Name: "part1", Required: true},
			{Name: "part2", Required: true},
		},
		Outputs: []string{"merged"},
		New: func(spec registry.Spec) (task.Task, error) {
			return New(spec.Inputs["part1"], spec.Inputs["part2"], spec.Options()...), nil
		},
	})
}
