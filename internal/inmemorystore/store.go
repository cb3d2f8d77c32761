// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the nodestore.Store interface.
//
// # Concurrency Model
//
// Unlike inmemorytopology which uses RWMutex, this store uses sync.Map because:
//   - **Write-Heavy Workload:** Workers constantly update node status and errors
//   - **Independent Keys:** Each node's state is independent of every other node
//   - **Compare-And-Swap:** Status changes use CompareAndSwap, so a node that is
//     raced by a worker and by skip propagation is finished exactly once
package inmemorystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store.
//
// The store maintains three independent sync.Maps:
//   - states: Maps node IDs to node.Status
//   - errors: Maps node IDs to the error recorded for failed or skipped nodes
//   - ran: Maps node IDs to struct{} once the task body was invoked
type Store struct {
	states sync.Map // Key: node ID, Value: node.Status
	errors sync.Map // Key: node ID, Value: error
	ran    sync.Map // Key: node ID, Value: struct{}
}

// New creates a new, empty in-memory node state store.
func New() nodestore.Store {
	return &Store{}
}

// SetStatus updates the status of a node after validating the transition.
func (s *Store) SetStatus(ctx context.Context, id string, status node.Status) error {
	for {
		current, _ := s.states.LoadOrStore(id, node.StatusPending)
		from := current.(node.Status)
		if !node.CanTransition(from, status) {
			return fmt.Errorf("%w: %s %s -> %s", nodestore.ErrInvalidTransition, id, from, status)
		}
		if s.states.CompareAndSwap(id, from, status) {
			return nil
		}
	}
}

// Transition swaps the status only if the node is currently in 'from'.
func (s *Store) Transition(ctx context.Context, id string, from, to node.Status) (bool, error) {
	if !node.CanTransition(from, to) {
		return false, fmt.Errorf("%w: %s %s -> %s", nodestore.ErrInvalidTransition, id, from, to)
	}
	s.states.LoadOrStore(id, node.StatusPending)
	return s.states.CompareAndSwap(id, from, to), nil
}

// GetStatus retrieves the status of a node.
// If a status has not been set, it returns StatusPending.
func (s *Store) GetStatus(ctx context.Context, id string) (node.Status, error) {
	status, ok := s.states.Load(id)
	if !ok {
		return node.StatusPending, nil
	}
	return status.(node.Status), nil
}

// SetError records the failure error of a node.
func (s *Store) SetError(ctx context.Context, id string, nodeErr error) error {
	s.errors.Store(id, nodeErr)
	return nil
}

// GetError retrieves the recorded error of a node.
func (s *Store) GetError(ctx context.Context, id string) (error, error) {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil, nil // If not found, there is no error.
	}
	return err.(error), nil
}

func (s *Store) MarkRan(ctx context.Context, id string) error {
	s.ran.Store(id, struct{}{})
	return nil
}

func (s *Store) Ran(ctx context.Context, id string) (bool, error) {
	_, ok := s.ran.Load(id)
	return ok, nil
}

// Snapshot copies the current statuses.
func (s *Store) Snapshot(ctx context.Context) map[string]node.Status {
	out := make(map[string]node.Status)
	s.states.Range(func(k, v any) bool {
		out[k.(string)] = v.(node.Status)
		return true
	})
	return out
}
