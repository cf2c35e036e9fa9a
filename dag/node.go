package dag

import (
	"context"

	"github.com/kbukum/rulekit/provider"
)

// Node is the execution unit in a DAG. Its output is a provider map that
// dependents read through their Inputs.
type Node interface {
	Name() string
	Run(ctx context.Context, in *Inputs) (*provider.Map, error)
}

// Func adapts a plain function into a Node.
func Func(name string, fn func(ctx context.Context, in *Inputs) (*provider.Map, error)) Node {
	return &funcNode{name: name, fn: fn}
}

type funcNode struct {
	name string
	fn   func(ctx context.Context, in *Inputs) (*provider.Map, error)
}

func (n *funcNode) Name() string { return n.name }

func (n *funcNode) Run(ctx context.Context, in *Inputs) (*provider.Map, error) {
	return n.fn(ctx, in)
}

// NodeConfig configures a node that produces exactly one provider.
type NodeConfig[P provider.Provider] struct {
	// Name is the unique node identifier in the graph.
	Name string
	// Produce computes the provider from the node's inputs.
	Produce func(ctx context.Context, in *Inputs) (P, error)
}

// FromProducer bridges a single-provider function into a Node whose output
// map holds just that provider.
func FromProducer[P provider.Provider](cfg NodeConfig[P]) Node {
	return &producerNode[P]{cfg: cfg}
}

type producerNode[P provider.Provider] struct {
	cfg NodeConfig[P]
}

func (n *producerNode[P]) Name() string { return n.cfg.Name }

func (n *producerNode[P]) Run(ctx context.Context, in *Inputs) (*provider.Map, error) {
	p, err := n.cfg.Produce(ctx, in)
	if err != nil {
		return nil, err
	}
	return provider.Build(p)
}
