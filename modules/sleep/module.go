// Package sleep provides a task kind that stands in for a long-running
// program: it waits, then leaves a done flag next to its upstream artifact.
package sleep

import (
	"context"
	"io"
	"time"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
	"github.com/zclconf/go-cty/cty"
)

const (
	Kind            = "sleep"
	DefaultSuffix   = ".sleep_done"
	DefaultDuration = 10 * time.Second
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type Task struct {
	task.Base
	duration time.Duration
	suffix   string
}

// New returns a task that sleeps for d after upstream is available.
func New(upstream task.OutputSpec, d time.Duration, suffix string, opts ...task.Option) *Task {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	params := task.Params{
		"duration": cty.StringVal(d.String()),
		"suffix":   cty.StringVal(suffix),
	}
	deps := map[string]task.OutputSpec{"upstream": upstream}
	return &Task{
		Base:     task.NewBase(Kind, params, deps, opts...),
		duration: d,
		suffix:   suffix,
	}
}

func (t *Task) DeclaredOutputs(inputs task.Targets) (task.Targets, error) {
	up, err := inputs.Get("upstream")
	if err != nil {
		return nil, err
	}
	return task.Targets{"doneflag": target.NewFlag("doneflag", up.Locator()+t.suffix)}, nil
}

func (t *Task) Run(ctx context.Context, _ task.Targets, outputs task.Targets) error {
	ctxlog.FromContext(ctx).Info("Sleeping.", "duration", t.duration)

	timer := time.NewTimer(t.duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	flag, err := outputs.Get("doneflag")
	if err != nil {
		return err
	}
	return target.WriteFile(flag, func(w io.Writer) error {
		_, err := io.WriteString(w, "Done!\n")
		return err
	})
}

func newTask(spec registry.Spec) (task.Task, error) {
	d, err := spec.Params.Duration("duration", DefaultDuration)
	if err != nil {
		return nil, err
	}
	suffix, err := spec.Params.String("suffix", DefaultSuffix)
	if err != nil {
		return nil, err
	}
	return New(spec.Inputs["upstream"], d, suffix, spec.Options()...), nil
}

// Register registers the task kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(Kind, &registry.RegisteredKind{
		Description: "Waits for a while, then writes <upstream><suffix>.",
		Inputs: []registry.Field{
			{Name: "upstream", Required: true},
		},
		Params: []registry.Field{
			{Name: "duration", Description: "Seconds or a duration string, default 10s."},
			{Name: "suffix", Description: "Flag suffix, default " + DefaultSuffix + "."},
		},
		Outputs: []string{"doneflag"},
		New:     newTask,
	})
}
