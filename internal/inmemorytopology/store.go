package inmemorytopology

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/topologystore"
)

// Store implements the topologystore.Store interface using maps and a mutex
// for thread-safe concurrent access.
type Store struct {
	mu         sync.RWMutex
	nodes      map[string]*node.Node
	deps       map[string]map[string]struct{} // Key: node ID, Value: set of dependency IDs
	dependents map[string]map[string]struct{} // Key: node ID, Value: set of dependent IDs
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		nodes:      make(map[string]*node.Node),
		deps:       make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

// AddNode adds a new node to the store.
func (s *Store) AddNode(ctx context.Context, n *node.Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("cannot add node without an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.ID]; exists {
		// Adding the same node twice is not an error, it's idempotent.
		return nil
	}
	s.nodes[n.ID] = n
	return nil
}

// AddDependency creates a dependency link from one node to another.
func (s *Store) AddDependency(ctx context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[from]; !exists {
		return fmt.Errorf("dependency source node '%s' not found in topology", from)
	}
	if _, exists := s.nodes[to]; !exists {
		return fmt.Errorf("dependency target node '%s' not found in topology", to)
	}
	if from == to {
		return fmt.Errorf("node '%s' cannot depend on itself", from)
	}

	if s.deps[to] == nil {
		s.deps[to] = make(map[string]struct{})
	}
	s.deps[to][from] = struct{}{}
	if s.dependents[from] == nil {
		s.dependents[from] = make(map[string]struct{})
	}
	s.dependents[from][to] = struct{}{}
	return nil
}

// GetNode retrieves a single node by its ID.
func (s *Store) GetNode(ctx context.Context, id string) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	return n, ok
}

// AllNodes returns a slice of all nodes in the topology, ordered by ID.
func (s *Store) AllNodes(ctx context.Context) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// DependenciesOf returns the IDs of all nodes that the given node depends on.
func (s *Store) DependenciesOf(ctx context.Context, id string) ([]string, error) {
	return s.edges(s.deps, id)
}

// DependentsOf returns the IDs of all nodes that depend on the given node.
func (s *Store) DependentsOf(ctx context.Context, id string) ([]string, error) {
	return s.edges(s.dependents, id)
}

func (s *Store) edges(m map[string]map[string]struct{}, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("node '%s' not found in topology", id)
	}
	set := m[id]
	ids := make([]string, 0, len(set))
	for k := range set {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids, nil
}
