// Package lowercase provides a task kind that lowercases a text file line
// by line.
package lowercase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
)

const (
	Kind          = "lowercase"
	DefaultSuffix = ".something_done"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type Task struct {
	task.Base
	suffix string
}

func New(indata task.OutputSpec, suffix string, opts ...task.Option) *Task {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	params := task.StringParams(map[string]string{"suffix": suffix})
	deps := map[string]task.OutputSpec{"indata": indata}
	return &Task{
		Base:   task.NewBase(Kind, params, deps, opts...),
		suffix: suffix,
	}
}

func (t *Task) DeclaredOutputs(inputs task.Targets) (task.Targets, error) {
	in, err := inputs.Get("indata")
	if err != nil {
		return nil, err
	}
	return task.Targets{"outdata": target.NewFile("outdata", in.Locator()+t.suffix)}, nil
}

func (t *Task) Run(_ context.Context, inputs, outputs task.Targets) error {
	in, err := inputs.Get("indata")
	if err != nil {
		return err
	}
	out, err := outputs.Get("outdata")
	if err != nil {
		return err
	}

	rc, err := in.OpenForRead()
	if err != nil {
		return fmt.Errorf("reading %s: %w", in.Locator(), err)
	}
	defer rc.Close()

	return target.WriteFile(out, func(w io.Writer) error {
		br := bufio.NewReader(rc)
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				if _, werr := io.WriteString(w, strings.ToLower(line)); werr != nil {
					return werr
				}
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})
}

// Register registers the task kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(Kind, &registry.RegisteredKind{
		Description: "Writes a lowercased copy of indata to <indata><suffix>.",
		Inputs: []registry.Field{
			{Name: "indata", Required: true},
		},
		Params: []registry.Field{
			{Name: "suffix", Description: "Output suffix, default " + DefaultSuffix + "."},
		},
		Outputs: []string{"outdata"},
		New: func(spec registry.Spec) (task.Task, error) {
			suffix, err := spec.Params.String("suffix", DefaultSuffix)
			if err != nil {
				return nil, err
			}
			return New(spec.Inputs["indata"], suffix, spec.Options()...), nil
		},
	})
}
