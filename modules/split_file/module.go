// Package split_file provides a task kind that splits a text file in two
// halves by line count.
package split_file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
)

const Kind = "split_file"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Task writes the first ceil(n/2) lines of indata to part1 and the
// remaining floor(n/2) lines to part2.
type Task struct {
	task.Base
}

func New(indata task.OutputSpec, opts ...task.Option) *Task {
	deps := map[string]task.OutputSpec{"indata": indata}
	return &Task{Base: task.NewBase(Kind, nil, deps, opts...)}
}

func (t *Task) DeclaredOutputs(inputs task.Targets) (task.Targets, error) {
	in, err := inputs.Get("indata")
	if err != nil {
		return nil, err
	}
	return task.Targets{
		"part1": target.WithSuffix(in, "part1", ".part1"),
		"part2": target.WithSuffix(in, "part2", ".part2"),
	}, nil
}

func (t *Task) Run(ctx context.Context, inputs, outputs task.Targets) error {
	in, err := inputs.Get("indata")
	if err != nil {
		return err
	}
	lines, err := readLines(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in.Locator(), err)
	}

	head := (len(lines) + 1) / 2
	ctxlog.FromContext(ctx).Info("Splitting file.", "path", in.Locator(), "lines", len(lines), "part1", head)

	parts := []struct {
		name  string
		lines []string
	}{{"part1", lines[:head]}, {"part2", lines[head:]}}
	for _, part := range parts {
		out, err := outputs.Get(part.name)
		if err != nil {
			return err
		}
		if err := writeLines(out, part.lines); err != nil {
			return fmt.Errorf("writing %s: %w", out.Locator(), err)
		}
	}
	return nil
}

// readLines returns the lines of t with their terminators. A final line
// without a newline counts as a line.
func readLines(t target.Target) ([]string, error) {
	rc, err := t.OpenForRead()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var lines []string
	br := bufio.NewReader(rc)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func writeLines(t target.Target, lines []string) error {
	return target.WriteFile(t, func(w io.Writer) error {
		for _, l := range lines {
			if _, err := io.WriteString(w, l); err != nil {
				return err
			}
		}
		return nil
	})
}

// Register registers the task kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(Kind, &registry.RegisteredKind{
		Description: "Splits indata into <indata>.part1 and <indata>.part2.",
		Inputs: []registry.Field{
			{Name: "indata", Required: true},
		},
		Outputs: []string{"part1", "part2"},
		New: func(spec registry.Spec) (task.Task, error) {
			return New(spec.Inputs["indata"], spec.Options()...), nil
		},
	})
}
