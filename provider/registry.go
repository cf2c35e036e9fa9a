package provider

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrSealed is returned when registering into a sealed Registry.
var ErrSealed = errors.New("provider: registry is sealed")

type anyDecoder func(payload []byte) (Provider, error)

// Registry maps type identifiers to decoders, so that records can be
// reconstructed without the caller naming their Go type.
type Registry struct {
	mu       sync.RWMutex
	decoders map[TypeID]anyDecoder
	sealed   bool
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[TypeID]anyDecoder)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds the decoder for P under P's identifier. Registering a second
// decoder for an identifier is an error: two types claiming one identifier
// would make decoding ambiguous.
func Register[P Provider](r *Registry, decode Decoder[P]) error {
	if decode == nil {
		return errors.New("provider: nil decoder")
	}
	id := IDOf[P]()
	if id == "" {
		return fmt.Errorf("provider: %T declares an empty type identifier", zero[P]())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrSealed
	}
	if _, exists := r.decoders[id]; exists {
		return fmt.Errorf("provider: decoder for %q already registered", id)
	}
	r.decoders[id] = func(payload []byte) (Provider, error) {
		p, err := decode(payload)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil
}

// MustRegister is Register that panics on error, for use in init functions.
func MustRegister[P Provider](r *Registry, decode Decoder[P]) {
	if err := Register(r, decode); err != nil {
		panic(err)
	}
}

// Registered reports whether a decoder exists for id.
func (r *Registry) Registered(id TypeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.decoders[id]
	return ok
}

// IDs returns the registered identifiers in ascending order.
func (r *Registry) IDs() []TypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]TypeID, 0, len(r.decoders))
	for id := range r.decoders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Seal returns an immutable copy of r. Further Register calls on the copy
// fail with ErrSealed; r itself stays open.
func (r *Registry) Seal() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sealed := &Registry{decoders: make(map[TypeID]anyDecoder, len(r.decoders)), sealed: true}
	for id, d := range r.decoders {
		sealed.decoders[id] = d
	}
	return sealed
}

func (r *Registry) decode(a Any) (Provider, error) {
	r.mu.RLock()
	d, ok := r.decoders[a.id]
	r.mu.RUnlock()
	if !ok {
		return nil, &DeserializationError{ID: a.id, Err: ErrUnregistered}
	}
	p, err := d(slices.Clone(a.payload))
	if err != nil {
		return nil, &DeserializationError{ID: a.id, Err: err}
	}
	return p, nil
}
