package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/gridflow/internal/config"
	"github.com/specialistvlad/gridflow/internal/hcl"
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/task"
	"github.com/specialistvlad/gridflow/internal/testutil"
	"github.com/specialistvlad/gridflow/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type stepTask struct {
	task.Base
}

func (s *stepTask) DeclaredOutputs(task.Targets) (task.Targets, error) { return task.Targets{}, nil }
func (s *stepTask) Run(context.Context, task.Targets, task.Targets) error { return nil }

// newRegistry registers a single "step" kind with optional inputs a and b and
// counts factory calls.
func newRegistry(calls *int) *registry.Registry {
	r := registry.New()
	r.RegisterKind("step", &registry.RegisteredKind{
		Inputs: []registry.Field{{Name: "a"}, {Name: "b"}},
		Params: []registry.Field{{Name: "label"}, {Name: "count"}},
		New: func(spec registry.Spec) (task.Task, error) {
			*calls++
			return &stepTask{Base: task.NewBase("step", spec.Params, spec.Inputs, spec.Options()...)}, nil
		},
	})
	return r
}

func load(t *testing.T, src string) *config.Workflow {
	t.Helper()
	ctx, _ := testutil.Context(t)
	path := filepath.Join(t.TempDir(), "workflow.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	wf, err := hcl.NewLoader().Load(ctx, path)
	require.NoError(t, err)
	return wf
}

func TestInstantiate_DiamondSharesInstance(t *testing.T) {
	ctx, _ := testutil.Context(t)
	wf := load(t, `
task "step" "top" {}

task "step" "left" {
  inputs { a = task.top.out }
}

task "step" "right" {
  inputs { a = task.top.out }
}

task "step" "bottom" {
  inputs {
    a = task.left.out
    b = task.right.out
  }
  retries = 2
  timeout = "1m"
}
`)
	calls := 0
	root, err := workflow.Instantiate(ctx, wf, newRegistry(&calls), nil, "bottom")
	require.NoError(t, err)
	assert.Equal(t, 4, calls)

	deps := root.Dependencies()
	left, right := deps["a"].Task, deps["b"].Task
	assert.Same(t, left.Dependencies()["a"].Task, right.Dependencies()["a"].Task)

	policy := root.(task.RetryPolicy)
	assert.Equal(t, uint64(2), policy.MaxRetries())
	assert.Equal(t, time.Minute, policy.Timeout())
	assert.Equal(t, "bottom", task.NameOf(root))
}

func TestInstantiate_ArgumentsUseVariables(t *testing.T) {
	ctx, _ := testutil.Context(t)
	wf := load(t, `
variable "name" {
  default = "acgt"
}

variable "n" {
  type = number
}

task "step" "x" {
  arguments {
    label = upper("${var.name}.txt")
    count = var.n + 1
  }
}
`)
	vars, err := workflow.ResolveVariables(ctx, wf.Variables, map[string]string{"n": "41"})
	require.NoError(t, err)

	calls := 0
	root, err := workflow.Instantiate(ctx, wf, newRegistry(&calls), vars, "x")
	require.NoError(t, err)

	label, err := root.Params().String("label", "")
	require.NoError(t, err)
	assert.Equal(t, "ACGT.TXT", label)
	assert.True(t, root.Params()["count"].Equals(cty.NumberIntVal(42)).True())
}

func TestInstantiate_CycleDetectedBeforeConstruction(t *testing.T) {
	ctx, _ := testutil.Context(t)
	wf := load(t, `
task "step" "a" {
  inputs { a = task.b.out }
}

task "step" "b" {
  inputs { a = task.c.out }
}

task "step" "c" {
  inputs { a = task.a.out }
}
`)
	calls := 0
	_, err := workflow.Instantiate(ctx, wf, newRegistry(&calls), nil, "a")
	require.ErrorIs(t, err, task.ErrCyclicDependency)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
	assert.Zero(t, calls)
}

func TestInstantiate_Errors(t *testing.T) {
	ctx, _ := testutil.Context(t)

	t.Run("unknown root lists available tasks", func(t *testing.T) {
		wf := load(t, `
task "step" "one" {}
task "step" "two" {}
`)
		calls := 0
		_, err := workflow.Instantiate(ctx, wf, newRegistry(&calls), nil, "three")
		require.ErrorIs(t, err, workflow.ErrUnknownTask)
		assert.Contains(t, err.Error(), "available: one, two")
	})

	t.Run("input references unknown task", func(t *testing.T) {
		wf := load(t, `
task "step" "one" {
  inputs { a = task.ghost.out }
}
`)
		calls := 0
		_, err := workflow.Instantiate(ctx, wf, newRegistry(&calls), nil, "one")
		require.ErrorIs(t, err, workflow.ErrUnknownTask)
		assert.Contains(t, err.Error(), `"ghost"`)
	})

	t.Run("negative retries", func(t *testing.T) {
		wf := load(t, `
task "step" "one" {
  retries = -1
}
`)
		calls := 0
		_, err := workflow.Instantiate(ctx, wf, newRegistry(&calls), nil, "one")
		assert.ErrorContains(t, err, "retries must be a non-negative integer")
	})

	t.Run("bad timeout", func(t *testing.T) {
		wf := load(t, `
task "step" "one" {
  timeout = "soon"
}
`)
		calls := 0
		_, err := workflow.Instantiate(ctx, wf, newRegistry(&calls), nil, "one")
		assert.ErrorContains(t, err, `param "timeout"`)
	})

	t.Run("undefined variable", func(t *testing.T) {
		wf := load(t, `
task "step" "one" {
  arguments { label = var.missing }
}
`)
		calls := 0
		_, err := workflow.Instantiate(ctx, wf, newRegistry(&calls), map[string]cty.Value{}, "one")
		assert.ErrorContains(t, err, `argument "label"`)
	})
}

func TestResolveVariables(t *testing.T) {
	ctx, logs := testutil.Context(t)
	def := cty.StringVal("acgt.txt")
	vars := []*config.Variable{
		{Name: "file", Type: cty.String, Default: &def},
		{Name: "workers", Type: cty.Number},
		{Name: "tags", Type: cty.List(cty.String)},
		{Name: "any", Type: cty.DynamicPseudoType},
	}

	got, err := workflow.ResolveVariables(ctx, vars, map[string]string{
		"workers": "8",
		"tags":    `["a", "b"]`,
		"any":     "x",
		"stray":   "1",
	})
	require.NoError(t, err)
	assert.True(t, got["file"].Equals(def).True())
	assert.True(t, got["workers"].Equals(cty.NumberIntVal(8)).True())
	assert.True(t, got["tags"].Equals(cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")})).True())
	assert.True(t, got["any"].Equals(cty.StringVal("x")).True())
	assert.Contains(t, logs.String(), "stray")

	_, err = workflow.ResolveVariables(ctx, vars, map[string]string{"tags": "[]"})
	assert.ErrorContains(t, err, `variable "workers" has no default`)

	_, err = workflow.ResolveVariables(ctx, vars, map[string]string{"workers": "many", "tags": "[]", "any": ""})
	assert.ErrorContains(t, err, `invalid value "many" for type number`)
}
