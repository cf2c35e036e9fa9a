package cas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kbukum/rulekit/digest"
)

// runBackendSuite exercises the behaviour every Backend must share.
func runBackendSuite(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		b := newBackend(t)
		data := []byte("serialized provider map")
		d, err := b.Put(ctx, data)
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if d != digest.Of(data) {
			t.Fatalf("Put returned %s, want %s", d.Short(), digest.Of(data).Short())
		}
		got, err := b.Get(ctx, d)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("Get = %q, want %q", got, data)
		}
	})

	t.Run("empty blob", func(t *testing.T) {
		b := newBackend(t)
		d, err := b.Put(ctx, []byte{})
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := b.Get(ctx, d)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty blob, got %d bytes", len(got))
		}
	})

	t.Run("put is idempotent", func(t *testing.T) {
		b := newBackend(t)
		data := bytes.Repeat([]byte("rule "), 200)
		d1, err := b.Put(ctx, data)
		if err != nil {
			t.Fatalf("first Put: %v", err)
		}
		d2, err := b.Put(ctx, data)
		if err != nil {
			t.Fatalf("second Put: %v", err)
		}
		if d1 != d2 {
			t.Fatalf("digests differ: %s vs %s", d1.Short(), d2.Short())
		}
	})

	t.Run("missing blob", func(t *testing.T) {
		b := newBackend(t)
		missing := digest.Of([]byte("never stored"))
		if _, err := b.Get(ctx, missing); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
		}
		ok, err := b.Contains(ctx, missing)
		if err != nil || ok {
			t.Fatalf("Contains missing = %v, %v", ok, err)
		}
		if err := b.Delete(ctx, missing); err != nil {
			t.Fatalf("Delete missing: %v", err)
		}
	})

	t.Run("contains and delete", func(t *testing.T) {
		b := newBackend(t)
		d, err := b.Put(ctx, []byte("to be deleted"))
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if ok, err := b.Contains(ctx, d); err != nil || !ok {
			t.Fatalf("Contains after Put = %v, %v", ok, err)
		}
		if err := b.Delete(ctx, d); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if ok, _ := b.Contains(ctx, d); ok {
			t.Fatal("Contains after Delete = true")
		}
		if _, err := b.Get(ctx, d); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get after Delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("caller buffers are not retained", func(t *testing.T) {
		b := newBackend(t)
		data := []byte("mutable")
		d, err := b.Put(ctx, data)
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		data[0] = 'M'
		got, err := b.Get(ctx, d)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		got[1] = 'U'
		again, _ := b.Get(ctx, d)
		if string(again) != "mutable" {
			t.Fatalf("stored blob changed through a caller buffer: %q", again)
		}
	})

	t.Run("action cache", func(t *testing.T) {
		b := newBackend(t)
		key := digest.Of([]byte("action key"))
		if _, err := b.GetAction(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetAction missing: expected ErrNotFound, got %v", err)
		}
		first := digest.Of([]byte("result 1"))
		second := digest.Of([]byte("result 2"))
		if err := b.PutAction(ctx, key, first); err != nil {
			t.Fatalf("PutAction: %v", err)
		}
		if got, err := b.GetAction(ctx, key); err != nil || got != first {
			t.Fatalf("GetAction = %s, %v", got.Short(), err)
		}
		if err := b.PutAction(ctx, key, second); err != nil {
			t.Fatalf("PutAction overwrite: %v", err)
		}
		if got, _ := b.GetAction(ctx, key); got != second {
			t.Fatalf("GetAction after overwrite = %s, want %s", got.Short(), second.Short())
		}
	})

	t.Run("concurrent writers", func(t *testing.T) {
		b := newBackend(t)
		var wg sync.WaitGroup
		errs := make(chan error, 32)
		for i := range 32 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// Half the writers race on the same content.
				data := []byte(fmt.Sprintf("blob-%d", i%16))
				d, err := b.Put(ctx, data)
				if err != nil {
					errs <- err
					return
				}
				got, err := b.Get(ctx, d)
				if err != nil {
					errs <- err
					return
				}
				if !bytes.Equal(got, data) {
					errs <- fmt.Errorf("blob %d: got %q", i, got)
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runBackendSuite(t, func(*testing.T) Backend { return NewMemoryStore() })
}

func TestMemoryStore_DetectsCorruption(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	d, _ := s.Put(ctx, []byte("original"))

	s.mu.Lock()
	s.blobs[d][0] ^= 0xff
	s.mu.Unlock()

	if _, err := s.Get(ctx, d); !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("expected ErrDigestMismatch, got %v", err)
	}
}

func TestMemoryStore_Health(t *testing.T) {
	s := NewMemoryStore()
	_, _ = s.Put(context.Background(), []byte("x"))
	h := s.CheckHealth(context.Background())
	if h.Status != "up" || h.Details["blobs"] != "1" {
		t.Errorf("unexpected health %+v", h)
	}
}
