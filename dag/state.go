package dag

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kbukum/rulekit/digest"
	"github.com/kbukum/rulekit/provider"
)

// State holds node outputs keyed by node name. Outputs are kept in their
// canonical serialized form, so every hand-off between nodes round-trips
// through bytes and carries a content digest.
type State struct {
	mu      sync.RWMutex
	outputs map[string]output
}

type output struct {
	data   []byte
	digest digest.Digest
}

// NewState creates a new empty State.
func NewState() *State {
	return &State{outputs: make(map[string]output)}
}

// Set serializes m and records it as the output of node name, replacing
// any earlier output. It returns the output's digest.
func (s *State) Set(name string, m *provider.Map) (digest.Digest, error) {
	data, err := m.Marshal()
	if err != nil {
		return digest.Digest{}, fmt.Errorf("dag: serializing output of %q: %w", name, err)
	}
	d := digest.Of(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[name] = output{data: data, digest: d}
	return d, nil
}

// Get decodes the output recorded for node name. The boolean is false when
// the node has no output.
func (s *State) Get(name string) (*provider.Map, bool, error) {
	s.mu.RLock()
	out, ok := s.outputs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	m, err := provider.Unmarshal(out.data)
	if err != nil {
		return nil, true, fmt.Errorf("dag: decoding output of %q: %w", name, err)
	}
	return m, true, nil
}

// Bytes returns the serialized output of node name.
func (s *State) Bytes(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, ok := s.outputs[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(out.data), true
}

// Digest returns the digest of node name's output.
func (s *State) Digest(name string) (digest.Digest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out, ok := s.outputs[name]
	return out.digest, ok
}

// Has reports whether node name has an output.
func (s *State) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.outputs[name]
	return ok
}

// Delete drops the output of node name.
func (s *State) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outputs, name)
}

// Names returns the names of nodes with an output, sorted.
func (s *State) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.outputs))
	for name := range s.outputs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Port names one provider type in one node's output, so callers outside the
// graph can read results with a typed accessor.
type Port[P provider.Provider] struct {
	Node   string
	Decode provider.Decoder[P]
}

// Read retrieves a typed provider from state using a Port.
// It fails if the node has no output or the output holds no P.
func Read[P provider.Provider](state *State, port Port[P]) (P, error) {
	var zero P
	m, ok, err := state.Get(port.Node)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, fmt.Errorf("dag: node %q has no output", port.Node)
	}
	return provider.Get(m, port.Decode)
}
