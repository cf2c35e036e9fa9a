package cas

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ActionCache maps an action key (the digest of everything that determines
// a computation's result) to the digest of that result. Unlike blobs,
// entries are mutable: the last write wins.
type ActionCache interface {
	// GetAction returns the result digest recorded for key, or ErrNotFound.
	GetAction(ctx context.Context, key Digest) (Digest, error)
	// PutAction records result as the outcome of key.
	PutAction(ctx context.Context, key, result Digest) error
}

// Backend is a blob store with an action cache.
type Backend interface {
	Store
	ActionCache
}

// actionTable is the in-memory ActionCache used by MemoryStore.
type actionTable struct {
	mu      sync.RWMutex
	actions map[Digest]Digest
}

func (t *actionTable) GetAction(_ context.Context, key Digest) (Digest, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result, ok := t.actions[key]
	if !ok {
		return Digest{}, ErrNotFound
	}
	return result, nil
}

func (t *actionTable) PutAction(_ context.Context, key, result Digest) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.actions == nil {
		t.actions = make(map[Digest]Digest)
	}
	t.actions[key] = result
	return nil
}

// Disk action entries live at <dir>/ac/<shard>/<key> and hold the raw
// 32-byte result digest.

func (s *DiskStore) actionPath(key Digest) string {
	hex := key.String()
	return filepath.Join(s.dir, "ac", hex[:2], hex)
}

func (s *DiskStore) GetAction(_ context.Context, key Digest) (Digest, error) {
	raw, err := os.ReadFile(s.actionPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return Digest{}, ErrNotFound
	}
	if err != nil {
		return Digest{}, fmt.Errorf("read action: %w", err)
	}
	if len(raw) != len(Digest{}) {
		return Digest{}, fmt.Errorf("action %s: malformed entry (%d bytes)", key.Short(), len(raw))
	}
	var result Digest
	copy(result[:], raw)
	return result, nil
}

func (s *DiskStore) PutAction(ctx context.Context, key, result Digest) error {
	path := s.actionPath(key)
	shard := filepath.Dir(path)
	if err := os.MkdirAll(shard, 0o755); err != nil {
		return fmt.Errorf("create action shard: %w", err)
	}
	unlock, err := s.lock(ctx, shard)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(shard, "."+key.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(result[:]); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write action: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename action into place: %w", err)
	}
	return nil
}
