package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
)

// ErrInjected is the error returned by FileTask when told to fail.
var ErrInjected = errors.New("injected failure")

// FileTask is a test task with a single file output "out". Run writes the
// task name followed by the contents of every input, in input-name order.
type FileTask struct {
	task.Base
	Path    string
	Counter *Counter

	// FailTimes makes the first FailTimes attempts fail with ErrInjected.
	FailTimes int32
	// AlwaysFail makes every attempt fail with ErrInjected.
	AlwaysFail bool
	// Delay is waited (context-aware) before writing.
	Delay time.Duration
	// SkipWrite makes Run succeed without producing its output.
	SkipWrite bool
	// BeforeRun, when set, is called at the start of every attempt.
	BeforeRun func(ctx context.Context) error

	attempts atomic.Int32
}

// NewFileTask builds a FileTask writing to path. The name is used for the
// Counter and for reports; it is not part of the task identity.
func NewFileTask(name, path string, counter *Counter, deps map[string]task.OutputSpec, opts ...task.Option) *FileTask {
	opts = append([]task.Option{task.WithName(name)}, opts...)
	return &FileTask{
		Base:    task.NewBase("test_file", task.StringParams(map[string]string{"path": path}), deps, opts...),
		Path:    path,
		Counter: counter,
	}
}

// Attempts returns how many times Run was entered.
func (f *FileTask) Attempts() int {
	return int(f.attempts.Load())
}

func (f *FileTask) DeclaredOutputs(task.Targets) (task.Targets, error) {
	return task.Targets{"out": target.NewFile("out", f.Path)}, nil
}

func (f *FileTask) Run(ctx context.Context, inputs, outputs task.Targets) error {
	n := f.attempts.Add(1)
	if f.Counter != nil {
		f.Counter.Enter(f.Name())
		defer f.Counter.Leave()
	}
	if f.BeforeRun != nil {
		if err := f.BeforeRun(ctx); err != nil {
			return err
		}
	}
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.AlwaysFail || n <= f.FailTimes {
		return fmt.Errorf("%s attempt %d: %w", f.Name(), n, ErrInjected)
	}
	if f.SkipWrite {
		return nil
	}

	var b strings.Builder
	b.WriteString(f.Name())
	b.WriteString("\n")
	for _, name := range inputs.Names() {
		in, err := inputs[name].OpenForRead()
		if err != nil {
			return err
		}
		_, err = io.Copy(&b, in)
		in.Close()
		if err != nil {
			return err
		}
	}
	out, err := outputs.Get("out")
	if err != nil {
		return err
	}
	return target.WriteFile(out, func(w io.Writer) error {
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ExternalFile is an external task whose only output "out" must already exist.
type ExternalFile struct {
	task.Base
	Path string
	ran  atomic.Bool
}

func NewExternalFile(name, path string) *ExternalFile {
	return &ExternalFile{
		Base: task.NewBase("test_external", task.StringParams(map[string]string{"path": path}), nil, task.WithName(name)),
		Path: path,
	}
}

func (e *ExternalFile) External() bool { return true }

// Ran reports whether the scheduler ever called Run.
func (e *ExternalFile) Ran() bool { return e.ran.Load() }

func (e *ExternalFile) DeclaredOutputs(task.Targets) (task.Targets, error) {
	return task.Targets{"out": target.NewFile("out", e.Path)}, nil
}

func (e *ExternalFile) Run(context.Context, task.Targets, task.Targets) error {
	e.ran.Store(true)
	return nil
}

// NoOutputTask declares no outputs, so it is never complete and always runs.
type NoOutputTask struct {
	task.Base
	Counter *Counter
}

func NewNoOutputTask(name string, counter *Counter, deps map[string]task.OutputSpec) *NoOutputTask {
	return &NoOutputTask{
		Base:    task.NewBase("test_no_output", task.StringParams(map[string]string{"name": name}), deps, task.WithName(name)),
		Counter: counter,
	}
}

func (n *NoOutputTask) DeclaredOutputs(task.Targets) (task.Targets, error) {
	return task.Targets{}, nil
}

func (n *NoOutputTask) Run(context.Context, task.Targets, task.Targets) error {
	if n.Counter != nil {
		n.Counter.Enter(n.Name())
		n.Counter.Leave()
	}
	return nil
}
