package encryption

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

// ErrCiphertextTooShort is returned by Open for input shorter than a nonce.
var ErrCiphertextTooShort = errors.New("encryption: ciphertext too short")

// Sealer encrypts and authenticates byte payloads.
type Sealer interface {
	// Seal encrypts plaintext, binding it to additionalData.
	Seal(plaintext, additionalData []byte) ([]byte, error)
	// Open reverses Seal. It fails if the ciphertext or additionalData
	// were altered.
	Open(sealed, additionalData []byte) ([]byte, error)
	// Algorithm names the cipher in use.
	Algorithm() Algorithm
}

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM (default, widely supported).
	AlgorithmAESGCM Algorithm = "aes-256-gcm"

	// AlgorithmChaCha20 is ChaCha20-Poly1305 (fast on CPUs without AES-NI).
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// Option configures the sealer.
type Option func(*options)

type options struct {
	algorithm Algorithm
}

// WithAlgorithm selects the encryption algorithm (default: AES-256-GCM).
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// New creates a Sealer with the given passphrase and options.
func New(key string, opts ...Option) (Sealer, error) {
	if key == "" {
		return nil, errors.New("encryption: empty key")
	}
	o := &options{algorithm: AlgorithmAESGCM}
	for _, opt := range opts {
		opt(o)
	}

	switch o.algorithm {
	case AlgorithmChaCha20:
		return NewChaCha20(key)
	case AlgorithmAESGCM:
		return NewAESGCM(key)
	default:
		return nil, fmt.Errorf("encryption: unknown algorithm %q", o.algorithm)
	}
}

// deriveKey hashes key with SHA-256 to a 32-byte cipher key.
func deriveKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}

// aeadSealer implements Sealer over any cipher.AEAD.
type aeadSealer struct {
	aead      cipher.AEAD
	algorithm Algorithm
}

func (s *aeadSealer) Algorithm() Algorithm { return s.algorithm }

func (s *aeadSealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (s *aeadSealer) Open(sealed, additionalData []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}
