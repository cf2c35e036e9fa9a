package cas

import (
	"context"

	"github.com/kbukum/rulekit/provider"
)

// MapStore stores provider maps in their serialized form. The digest of a
// stored map equals provider.Map.Digest, so a map can be addressed without
// storing it first.
type MapStore struct {
	store Store
}

// NewMapStore wraps store.
func NewMapStore(store Store) *MapStore {
	return &MapStore{store: store}
}

// Store returns the underlying blob store.
func (m *MapStore) Store() Store { return m.store }

// PutMap serializes pm and stores it.
func (m *MapStore) PutMap(ctx context.Context, pm *provider.Map) (Digest, error) {
	data, err := pm.Marshal()
	if err != nil {
		return Digest{}, err
	}
	return m.store.Put(ctx, data)
}

// GetMap loads and decodes the map stored under d. A blob that is not a
// valid serialized map yields a *provider.DeserializationError.
func (m *MapStore) GetMap(ctx context.Context, d Digest) (*provider.Map, error) {
	data, err := m.store.Get(ctx, d)
	if err != nil {
		return nil, err
	}
	return provider.Unmarshal(data)
}
