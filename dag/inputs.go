package dag

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kbukum/rulekit/provider"
)

// ErrMissingDependency is returned by Need when the named dependency is not
// among a node's inputs.
var ErrMissingDependency = errors.New("dag: missing dependency")

// Inputs are the outputs of a node's direct dependencies, keyed by
// dependency name.
type Inputs struct {
	deps  map[string]*provider.Map
	names []string
}

// NewInputs builds Inputs from dependency outputs. It is used by the engine
// and by tests that run a node directly.
func NewInputs(deps map[string]*provider.Map) *Inputs {
	in := &Inputs{deps: make(map[string]*provider.Map, len(deps))}
	for name, m := range deps {
		in.deps[name] = m
		in.names = append(in.names, name)
	}
	slices.Sort(in.names)
	return in
}

// Dependency returns the output of the named dependency.
func (in *Inputs) Dependency(name string) (*provider.Map, bool) {
	if in == nil {
		return nil, false
	}
	m, ok := in.deps[name]
	return m, ok
}

// Names returns the dependency names in sorted order.
func (in *Inputs) Names() []string {
	if in == nil {
		return nil
	}
	return slices.Clone(in.names)
}

// Len reports the number of dependencies.
func (in *Inputs) Len() int {
	if in == nil {
		return 0
	}
	return len(in.names)
}

// Need returns the P carried by the named dependency.
func Need[P provider.Provider](in *Inputs, dep string, decode provider.Decoder[P]) (P, error) {
	m, ok := in.Dependency(dep)
	if !ok {
		var zero P
		return zero, fmt.Errorf("%w %q", ErrMissingDependency, dep)
	}
	return provider.Get(m, decode)
}

// Find returns the P carried by the first dependency, in name order, whose
// output holds one. It reports the dependency it came from.
func Find[P provider.Provider](in *Inputs, decode provider.Decoder[P]) (P, string, error) {
	for _, name := range in.Names() {
		p, ok, err := provider.Lookup(in.deps[name], decode)
		if err != nil {
			var zero P
			return zero, name, err
		}
		if ok {
			return p, name, nil
		}
	}
	var zero P
	return zero, "", &provider.NotFoundError{ID: provider.IDOf[P]()}
}
