package registry

import (
	"fmt"
	"log/slog"
	"sort"
)

// Module is the interface that all task modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered task kinds for a single application instance.
type Registry struct {
	kinds map[string]*RegisteredKind
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		kinds: make(map[string]*RegisteredKind),
	}
}

// RegisterKind registers the factory and contract for a task kind.
func (r *Registry) RegisterKind(kind string, k *RegisteredKind) {
	if kind == "" {
		panic("task kind must not be empty")
	}
	if k == nil || k.New == nil {
		panic(fmt.Sprintf("task kind '%s' registered without a factory", kind))
	}
	if _, exists := r.kinds[kind]; exists {
		panic(fmt.Sprintf("task kind '%s' already registered", kind))
	}
	slog.Debug("Registering task kind.", "kind", kind)
	r.kinds[kind] = k
}

// Lookup returns the registration for kind.
func (r *Registry) Lookup(kind string) (*RegisteredKind, bool) {
	k, ok := r.kinds[kind]
	return k, ok
}

// Kinds returns the registered kind names in lexical order.
func (r *Registry) Kinds() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
