package graph

import (
	"context"
	"sort"

	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/topologystore"
)

// Graph is the immutable workflow DAG produced by Build.
type Graph struct {
	topology topologystore.Store
	root     *node.Node
}

// Root returns the node of the task Build was called with.
func (g *Graph) Root() *node.Node {
	return g.root
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.topology.AllNodes(context.Background()))
}

// Node looks a node up by ID.
func (g *Graph) Node(id string) (*node.Node, bool) {
	return g.topology.GetNode(context.Background(), id)
}

// Nodes returns every node ordered by ID.
func (g *Graph) Nodes() []*node.Node {
	return g.topology.AllNodes(context.Background())
}

// Dependencies returns the direct upstream nodes of id.
func (g *Graph) Dependencies(id string) ([]*node.Node, error) {
	ids, err := g.topology.DependenciesOf(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return g.lookup(ids), nil
}

// Dependents returns the direct downstream nodes of id.
func (g *Graph) Dependents(id string) ([]*node.Node, error) {
	ids, err := g.topology.DependentsOf(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return g.lookup(ids), nil
}

func (g *Graph) lookup(ids []string) []*node.Node {
	nodes := make([]*node.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := g.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// TopologicalOrder lists node IDs so that every node follows all of its
// dependencies. Ties are broken lexically, so the order is deterministic.
func (g *Graph) TopologicalOrder() []string {
	ctx := context.Background()
	nodes := g.topology.AllNodes(ctx)
	pending := make(map[string]int, len(nodes))
	var ready []string
	for _, n := range nodes {
		deps, _ := g.topology.DependenciesOf(ctx, n.ID)
		pending[n.ID] = len(deps)
		if len(deps) == 0 {
			ready = append(ready, n.ID)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		dependents, _ := g.topology.DependentsOf(ctx, id)
		for _, d := range dependents {
			pending[d]--
			if pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	return order
}
