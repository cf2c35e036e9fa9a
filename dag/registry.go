package dag

import (
	"fmt"
	"slices"
	"sync"
)

// Registry provides named node lookup for dynamic graph construction.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]Node)}
}

// Register adds nodes under their own names. A name already taken is an
// error and leaves the registry unchanged from that node on.
func (r *Registry) Register(nodes ...Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range nodes {
		if _, exists := r.nodes[n.Name()]; exists {
			return fmt.Errorf("dag: node %q already registered", n.Name())
		}
		r.nodes[n.Name()] = n
	}
	return nil
}

// Get retrieves a node by name.
func (r *Registry) Get(name string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[name]
	return n, ok
}

// List returns sorted names of all registered nodes.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
