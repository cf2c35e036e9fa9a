package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// NewAESGCM creates an AES-256-GCM sealer. The key is hashed with SHA-256 to
// produce a consistent 32-byte AES key.
func NewAESGCM(key string) (Sealer, error) {
	block, err := aes.NewCipher(deriveKey(key))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &aeadSealer{aead: gcm, algorithm: AlgorithmAESGCM}, nil
}
