package cas

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/kbukum/rulekit/digest"
	"github.com/kbukum/rulekit/observability"
)

// MemoryStore keeps blobs in a map. Data is copied on the way in and out,
// so callers may reuse their buffers.
type MemoryStore struct {
	actionTable

	mu    sync.RWMutex
	blobs map[Digest][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[Digest][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, data []byte) (Digest, error) {
	d := digest.Of(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[d]; !ok {
		s.blobs[d] = slices.Clone(data)
	}
	return d, nil
}

func (s *MemoryStore) Get(_ context.Context, d Digest) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.blobs[d]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if err := verify(d, data); err != nil {
		return nil, err
	}
	return slices.Clone(data), nil
}

func (s *MemoryStore) Contains(_ context.Context, d Digest) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[d]
	return ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, d Digest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, d)
	return nil
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// CheckHealth implements observability.HealthChecker.
func (s *MemoryStore) CheckHealth(context.Context) observability.Health {
	return observability.Health{
		Name:    "cache.memory",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"blobs": strconv.Itoa(s.Len())},
	}
}
