package cas

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/rulekit/digest"
)

// Digest is the content address of a blob.
type Digest = digest.Digest

var (
	// ErrNotFound is returned by Get for a digest the store does not hold.
	ErrNotFound = errors.New("cas: blob not found")
	// ErrDigestMismatch is returned when stored content no longer hashes to
	// its address.
	ErrDigestMismatch = errors.New("cas: digest mismatch")
)

// Store is a content-addressed blob store. Implementations are safe for
// concurrent use.
type Store interface {
	// Put stores data and returns its digest. Storing the same content
	// twice is a no-op.
	Put(ctx context.Context, data []byte) (Digest, error)
	// Get returns the content stored under d, or ErrNotFound.
	Get(ctx context.Context, d Digest) ([]byte, error)
	// Contains reports whether d is stored.
	Contains(ctx context.Context, d Digest) (bool, error)
	// Delete removes d. Deleting an absent digest is not an error.
	Delete(ctx context.Context, d Digest) error
}

// verify checks that data is the content addressed by d.
func verify(d Digest, data []byte) error {
	if !digest.Verify(d, data) {
		return fmt.Errorf("%w: %s", ErrDigestMismatch, d.Short())
	}
	return nil
}
