// Package rsync_folder provides a task kind that mirrors a directory tree.
package rsync_folder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/fsutil"
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/internal/target"
	"github.com/specialistvlad/gridflow/internal/task"
)

const Kind = "rsync_folder"

// ErrDestInsideSource is returned when dest is src or lies below it; the copy
// would otherwise walk into its own output.
var ErrDestInsideSource = errors.New("destination is inside the source directory")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Task copies the directory src to dest. The copy is staged next to dest and
// renamed into place, so dest never exists half-populated.
type Task struct {
	task.Base
	src  string
	dest string
}

func New(src, dest string, opts ...task.Option) *Task {
	params := task.StringParams(map[string]string{"src": src, "dest": dest})
	return &Task{
		Base: task.NewBase(Kind, params, nil, opts...),
		src:  src,
		dest: dest,
	}
}

func (t *Task) DeclaredOutputs(task.Targets) (task.Targets, error) {
	return task.Targets{"dest_dir": target.NewDirectory("dest_dir", t.dest)}, nil
}

func (t *Task) Run(ctx context.Context, _ task.Targets, outputs task.Targets) error {
	out, err := outputs.Get("dest_dir")
	if err != nil {
		return err
	}
	dest := out.Locator()
	if err := checkPaths(t.src, dest); err != nil {
		return err
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	ctxlog.FromContext(ctx).Info("Copying directory.", "src", t.src, "dest", dest)

	tree := filepath.Join(staging, filepath.Base(dest))
	if err := fsutil.CopyDir(ctx, t.src, tree); err != nil {
		return fmt.Errorf("copying %s: %w", t.src, err)
	}
	if err := os.Rename(tree, dest); err != nil {
		return fmt.Errorf("moving copy into %s: %w", dest, err)
	}
	return nil
}

func checkPaths(src, dest string) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(absSrc, absDest)
	if err != nil {
		// Paths on different volumes cannot nest.
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return fmt.Errorf("%w: %s is under %s", ErrDestInsideSource, dest, src)
	}
	return nil
}

func newTask(spec registry.Spec) (task.Task, error) {
	src, err := spec.Params.RequiredString("src")
	if err != nil {
		return nil, err
	}
	dest, err := spec.Params.RequiredString("dest")
	if err != nil {
		return nil, err
	}
	if err := checkPaths(src, dest); err != nil {
		return nil, err
	}
	return New(src, dest, spec.Options()...), nil
}

// Register registers the task kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(Kind, &registry.RegisteredKind{
		Description: "Recursively copies the directory src to dest.",
		Params: []registry.Field{
			{Name: "src", Required: true, Description: "Directory to copy."},
			{Name: "dest", Required: true, Description: "Directory to create."},
		},
		Outputs: []string{"dest_dir"},
		New:     newTask,
	})
}
