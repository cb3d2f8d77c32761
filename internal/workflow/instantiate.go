package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/gridflow/internal/config"
	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/task"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ErrUnknownTask is returned when a root name or an input reference names a
// task block that does not exist.
var ErrUnknownTask = errors.New("unknown task")

type instantiator struct {
	wf      *config.Workflow
	reg     *registry.Registry
	evalCtx *hcl.EvalContext
	built   map[string]task.Task
}

// Instantiate constructs the task declared by the block named rootName and,
// recursively, every block it references. Each block is constructed once,
// so blocks referenced from several places share a single instance.
func Instantiate(ctx context.Context, wf *config.Workflow, reg *registry.Registry, vars map[string]cty.Value, rootName string) (task.Task, error) {
	logger := ctxlog.FromContext(ctx)

	if _, ok := wf.Task(rootName); !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownTask, rootName, strings.Join(wf.TaskNames(), ", "))
	}
	if err := checkReferences(wf, rootName); err != nil {
		return nil, err
	}

	in := &instantiator{
		wf:      wf,
		reg:     reg,
		evalCtx: EvalContext(vars),
		built:   make(map[string]task.Task),
	}
	root, err := in.build(ctx, rootName)
	if err != nil {
		return nil, err
	}
	logger.Debug("Workflow instantiated.", "root", rootName, "taskCount", len(in.built))
	return root, nil
}

// checkReferences walks the input references reachable from root and
// reports unknown names and cycles. The error for a cycle carries the path,
// ending with the block that closes it.
func checkReferences(wf *config.Workflow, root string) error {
	done := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		if onStack[name] {
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			path := append(append([]string{}, stack[start:]...), name)
			return fmt.Errorf("%w: %s", task.ErrCyclicDependency, strings.Join(path, " -> "))
		}
		if done[name] {
			return nil
		}
		block, _ := wf.Task(name)
		onStack[name] = true
		stack = append(stack, name)

		for _, input := range sortedInputs(block) {
			ref := block.Inputs[input]
			if _, ok := wf.Task(ref.Task); !ok {
				return fmt.Errorf("%s: task %q input %q: %w %q", ref.Range, name, input, ErrUnknownTask, ref.Task)
			}
			if err := visit(ref.Task); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		onStack[name] = false
		done[name] = true
		return nil
	}
	return visit(root)
}

func (in *instantiator) build(ctx context.Context, name string) (task.Task, error) {
	if t, ok := in.built[name]; ok {
		return t, nil
	}
	block, _ := in.wf.Task(name)

	inputs := make(map[string]task.OutputSpec, len(block.Inputs))
	for _, input := range sortedInputs(block) {
		ref := block.Inputs[input]
		up, err := in.build(ctx, ref.Task)
		if err != nil {
			return nil, err
		}
		inputs[input] = task.Out(up, ref.Output)
	}

	spec, err := in.spec(block)
	if err != nil {
		return nil, err
	}
	spec.Inputs = inputs

	t, err := in.reg.NewTask(block.Kind, spec)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Instantiated task.", "name", name, "kind", block.Kind)
	in.built[name] = t
	return t, nil
}

func (in *instantiator) spec(block *config.Task) (registry.Spec, error) {
	spec := registry.Spec{Name: block.Name, Params: task.Params{}}

	names := make([]string, 0, len(block.Arguments))
	for n := range block.Arguments {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		val, diags := block.Arguments[n].Value(in.evalCtx)
		if diags.HasErrors() {
			return spec, fmt.Errorf("task %q: argument %q: %w", block.Name, n, diags)
		}
		spec.Params[n] = val
	}

	if block.Retries != nil {
		val, diags := block.Retries.Value(in.evalCtx)
		if diags.HasErrors() {
			return spec, fmt.Errorf("task %q: retries: %w", block.Name, diags)
		}
		num, err := convert.Convert(val, cty.Number)
		if err != nil {
			return spec, fmt.Errorf("task %q: retries: %w", block.Name, err)
		}
		if err := gocty.FromCtyValue(num, &spec.Retries); err != nil {
			return spec, fmt.Errorf("task %q: retries must be a non-negative integer: %w", block.Name, err)
		}
	}

	if block.Timeout != nil {
		val, diags := block.Timeout.Value(in.evalCtx)
		if diags.HasErrors() {
			return spec, fmt.Errorf("task %q: timeout: %w", block.Name, diags)
		}
		d, err := task.Params{"timeout": val}.Duration("timeout", 0)
		if err != nil {
			return spec, fmt.Errorf("task %q: %w", block.Name, err)
		}
		if d < 0 {
			return spec, fmt.Errorf("task %q: timeout must not be negative", block.Name)
		}
		spec.Timeout = d
	}
	return spec, nil
}

func sortedInputs(block *config.Task) []string {
	names := make([]string, 0, len(block.Inputs))
	for n := range block.Inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
