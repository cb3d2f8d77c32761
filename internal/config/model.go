package config

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Workflow is the unified representation of a workflow definition: a set of
// named task instances wired together by their inputs, plus the variables
// their arguments may reference.
type Workflow struct {
	Variables []*Variable
	Tasks     []*Task
}

// Task returns the task block with the given instance name.
func (w *Workflow) Task(name string) (*Task, bool) {
	for _, t := range w.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// TaskNames returns the instance names in lexical order.
func (w *Workflow) TaskNames() []string {
	names := make([]string, 0, len(w.Tasks))
	for _, t := range w.Tasks {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Variable is the format-agnostic representation of a `variable` block.
type Variable struct {
	Name        string
	Description string
	// Type is cty.DynamicPseudoType when the block declares no type.
	Type cty.Type
	// Default is nil when the variable must be bound by the caller.
	Default *cty.Value
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	Kind        string
	Name        string
	Description string
	Arguments   map[string]hcl.Expression
	Inputs      map[string]InputRef
	// Retries and Timeout are nil when not set in the source.
	Retries hcl.Expression
	Timeout hcl.Expression
	// Source is the file the block was declared in.
	Source string
}

// InputRef references output Output of the task instance named Task.
type InputRef struct {
	Task   string
	Output string
	Range  hcl.Range
}
