package encryption

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// NewChaCha20 creates a ChaCha20-Poly1305 sealer using the extended 24-byte
// nonce variant, so random nonces are safe for any number of blobs.
func NewChaCha20(key string) (Sealer, error) {
	aead, err := chacha20poly1305.NewX(deriveKey(key))
	if err != nil {
		return nil, fmt.Errorf("create chacha20: %w", err)
	}
	return &aeadSealer{aead: aead, algorithm: AlgorithmChaCha20}, nil
}
