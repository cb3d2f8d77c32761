// Package topologystore defines the interface for storing and retrieving the
// static structure of a workflow graph.
//
// # Why Topology Store Exists
//
// The topology store separates the **immutable DAG structure** (nodes and their
// dependency edges) from the **mutable run state** (status, errors) managed by
// nodestore. The graph builder writes it once; the scheduler only reads it.
//
// # Lifecycle and Usage
//
// The topology store is:
//  1. **Created** once per run by graph.Build
//  2. **Populated** while the builder walks dependencies from the root task
//  3. **Read-only** during execution (the scheduler queries dependents to unlock work)
//  4. **Discarded** when the run ends
package topologystore

import (
	"context"

	"github.com/specialistvlad/gridflow/internal/node"
)

// Store manages the static topology of a workflow DAG.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent reads, as every scheduler worker
// queries dependents after finishing a node.
type Store interface {
	// AddNode registers a node. Adding a node whose ID is already present is a
	// no-op, which is how diamond dependencies collapse onto one vertex.
	AddNode(ctx context.Context, n *node.Node) error

	// AddDependency records that 'to' depends on 'from' (from runs first).
	// Both nodes must already exist. Adding the same edge twice is a no-op.
	AddDependency(ctx context.Context, from, to string) error

	// GetNode retrieves a single node by ID.
	GetNode(ctx context.Context, id string) (*node.Node, bool)

	// AllNodes returns every node, ordered by ID.
	AllNodes(ctx context.Context) []*node.Node

	// DependenciesOf returns the IDs 'id' directly depends on, ordered by ID.
	DependenciesOf(ctx context.Context, id string) ([]string, error)

	// DependentsOf returns the IDs that directly depend on 'id', ordered by ID.
	DependentsOf(ctx context.Context, id string) ([]string, error)
}
