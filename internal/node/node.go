// Package node defines the vertex of a workflow graph and the status values a
// vertex moves through while a run executes.
package node

import (
	"fmt"

	"github.com/specialistvlad/gridflow/internal/task"
)

// Node is a single vertex in the workflow graph: one task instance together
// with the targets resolved for it at build time. A Node is immutable once the
// graph is built; its run state lives in a nodestore.Store.
type Node struct {
	// ID is the value-based identity of the task (see task.ID).
	ID string
	// Name is the human-readable instance name, or the kind when unnamed.
	Name string
	// Task is the instance this node executes.
	Task task.Task
	// Inputs maps input names to the upstream targets they resolved to.
	Inputs task.Targets
	// Outputs are the declared outputs, computed once at build time.
	Outputs task.Targets
}

// Kind is a shorthand for n.Task.Kind().
func (n *Node) Kind() string {
	return n.Task.Kind()
}

func (n *Node) String() string {
	if n.Name != "" && n.Name != n.Task.Kind() {
		return fmt.Sprintf("%s (%s)", n.Name, n.ID)
	}
	return n.ID
}

// Status is the execution state of a node during a run.
type Status int32

const (
	// StatusPending means the node waits for its dependencies.
	StatusPending Status = iota
	// StatusReady means every dependency completed and the node is queued.
	StatusReady
	// StatusRunning means a worker is executing the task.
	StatusRunning
	// StatusComplete means every declared output exists.
	StatusComplete
	// StatusFailed means the task itself failed.
	StatusFailed
	// StatusSkipped means the node never ran because an upstream node failed
	// or the run was cancelled.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusComplete:
		return "complete"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusSkipped
}

var transitions = map[Status][]Status{
	StatusPending: {StatusReady, StatusSkipped},
	StatusReady:   {StatusRunning, StatusComplete, StatusSkipped, StatusFailed},
	StatusRunning: {StatusComplete, StatusFailed},
}

// CanTransition reports whether a node may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
