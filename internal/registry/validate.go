package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/gridflow/internal/config"
	"github.com/specialistvlad/gridflow/internal/task"
)

// NewTask validates spec against the contract of kind and calls its factory.
func (r *Registry) NewTask(kind string, spec Spec) (task.Task, error) {
	k, ok := r.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown task kind %q", kind)
	}

	var errs []string
	errs = append(errs, checkFields("input", k.Inputs, keysOf(spec.Inputs))...)
	errs = append(errs, checkFields("argument", k.Params, keysOf(spec.Params))...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("task %q (%s): %s", spec.Name, kind, strings.Join(errs, "; "))
	}

	t, err := k.New(spec)
	if err != nil {
		return nil, fmt.Errorf("task %q (%s): %w", spec.Name, kind, err)
	}
	return t, nil
}

// ValidateWorkflow checks that every task block names a registered kind and
// only uses the inputs and arguments that kind declares.
func (r *Registry) ValidateWorkflow(wf *config.Workflow) error {
	var errs []string

	for _, name := range wf.TaskNames() {
		t, _ := wf.Task(name)
		k, ok := r.kinds[t.Kind]
		if !ok {
			errs = append(errs, fmt.Sprintf("task '%s': unknown kind '%s' (registered: %s)", name, t.Kind, strings.Join(r.Kinds(), ", ")))
			continue
		}
		for _, msg := range checkFields("input", k.Inputs, keysOf(t.Inputs)) {
			errs = append(errs, fmt.Sprintf("task '%s': %s", name, msg))
		}
		for _, msg := range checkFields("argument", k.Params, keysOf(t.Arguments)) {
			errs = append(errs, fmt.Sprintf("task '%s': %s", name, msg))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("workflow validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func checkFields(what string, fields []Field, given []string) []string {
	var errs []string
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.Name] = struct{}{}
	}
	have := make(map[string]struct{}, len(given))
	for _, g := range given {
		have[g] = struct{}{}
		if _, ok := known[g]; !ok {
			errs = append(errs, fmt.Sprintf("unknown %s '%s'", what, g))
		}
	}
	for _, f := range fields {
		if _, ok := have[f.Name]; f.Required && !ok {
			errs = append(errs, fmt.Sprintf("missing required %s '%s'", what, f.Name))
		}
	}
	return errs
}

func keysOf[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
