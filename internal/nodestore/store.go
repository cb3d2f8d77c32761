// Package nodestore defines the interface for storing and retrieving the
// mutable run state of nodes while a workflow executes.
//
// # Why Node Store Exists
//
// The node store isolates **mutable run state** (status, errors, whether the
// task body was invoked) from the **immutable DAG structure** held by
// topologystore. State updates from many workers never contend with the
// structure queries the scheduler makes.
//
// # State Transitions
//
// Nodes follow this lifecycle:
//
//	Pending → Ready → Running → Complete | Failed
//	Pending → Skipped                    (upstream failed, run cancelled)
//	Ready   → Complete                   (outputs already existed)
//	Ready   → Skipped | Failed           (cancelled, missing external output)
//
// Every other transition is rejected with ErrInvalidTransition, which the
// scheduler treats as an internal error.
package nodestore

import (
	"context"
	"errors"

	"github.com/specialistvlad/gridflow/internal/node"
)

// ErrInvalidTransition is returned when a status change is not allowed by
// node.CanTransition.
var ErrInvalidTransition = errors.New("invalid status transition")

// Store manages the mutable run state of nodes.
//
// # Thread-Safety Requirements
//
// Implementations MUST be thread-safe for concurrent reads and writes, as
// workers update different nodes in parallel and the skip propagation may race
// a worker for the same node.
type Store interface {
	// SetStatus moves a node to status, validating the transition against its
	// current status. Nodes that were never touched are Pending.
	SetStatus(ctx context.Context, id string, status node.Status) error

	// Transition moves a node from 'from' to 'to' only if its current status is
	// 'from'. It reports whether the swap happened. This gives callers an
	// exactly-once guarantee when several goroutines race to finish a node.
	Transition(ctx context.Context, id string, from, to node.Status) (bool, error)

	// GetStatus returns the current status, StatusPending if never set.
	GetStatus(ctx context.Context, id string) (node.Status, error)

	// SetError records why a node failed or was skipped.
	SetError(ctx context.Context, id string, nodeErr error) error

	// GetError returns the recorded error, or nil.
	GetError(ctx context.Context, id string) (error, error)

	// MarkRan records that the task body (Run) was invoked for the node.
	MarkRan(ctx context.Context, id string) error

	// Ran reports whether MarkRan was called for the node.
	Ran(ctx context.Context, id string) (bool, error)

	// Snapshot returns the status of every node that has one.
	Snapshot(ctx context.Context) map[string]node.Status
}
