package encryption

import (
	"bytes"
	"errors"
	"testing"
)

func allSealers(t *testing.T, key string) []Sealer {
	t.Helper()
	var out []Sealer
	for _, alg := range []Algorithm{AlgorithmAESGCM, AlgorithmChaCha20} {
		s, err := New(key, WithAlgorithm(alg))
		if err != nil {
			t.Fatalf("New(%s): %v", alg, err)
		}
		out = append(out, s)
	}
	return out
}

func TestNew_DefaultAlgorithm(t *testing.T) {
	s, err := New("test-key-123")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.Algorithm() != AlgorithmAESGCM {
		t.Errorf("expected default %s, got %s", AlgorithmAESGCM, s.Algorithm())
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := New("k", WithAlgorithm("rot13")); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"cbor envelope", []byte{0xa2, 0x61, 0x76, 0x01}},
		{"text", []byte("provider payload")},
		{"large", bytes.Repeat([]byte{0x5a}, 64*1024)},
	}

	for _, s := range allSealers(t, "my-secret-key") {
		for _, tc := range tests {
			t.Run(string(s.Algorithm())+"/"+tc.name, func(t *testing.T) {
				ad := []byte("digest")
				sealed, err := s.Seal(tc.plaintext, ad)
				if err != nil {
					t.Fatalf("Seal failed: %v", err)
				}
				if len(tc.plaintext) > 0 && bytes.Contains(sealed, tc.plaintext) {
					t.Error("sealed output contains the plaintext")
				}
				opened, err := s.Open(sealed, ad)
				if err != nil {
					t.Fatalf("Open failed: %v", err)
				}
				if !bytes.Equal(opened, tc.plaintext) {
					t.Errorf("roundtrip mismatch")
				}
			})
		}
	}
}

func TestSealProducesDifferentCiphertexts(t *testing.T) {
	for _, s := range allSealers(t, "my-key") {
		a, _ := s.Seal([]byte("same input"), nil)
		b, _ := s.Seal([]byte("same input"), nil)
		if bytes.Equal(a, b) {
			t.Errorf("%s: sealing twice should use different nonces", s.Algorithm())
		}
	}
}

func TestOpen_WrongKey(t *testing.T) {
	one := allSealers(t, "key-one")
	two := allSealers(t, "key-two")
	for i := range one {
		sealed, err := one[i].Seal([]byte("secret"), nil)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}
		if _, err := two[i].Open(sealed, nil); err == nil {
			t.Errorf("%s: expected failure with wrong key", one[i].Algorithm())
		}
	}
}

func TestOpen_WrongAdditionalData(t *testing.T) {
	for _, s := range allSealers(t, "key") {
		sealed, _ := s.Seal([]byte("blob"), []byte("address-1"))
		if _, err := s.Open(sealed, []byte("address-2")); err == nil {
			t.Errorf("%s: expected failure for moved ciphertext", s.Algorithm())
		}
	}
}

func TestOpen_Tampered(t *testing.T) {
	for _, s := range allSealers(t, "key") {
		sealed, _ := s.Seal([]byte("blob"), nil)
		sealed[len(sealed)-1] ^= 0x01
		if _, err := s.Open(sealed, nil); err == nil {
			t.Errorf("%s: expected failure for tampered ciphertext", s.Algorithm())
		}
	}
}

func TestOpen_TooShort(t *testing.T) {
	for _, s := range allSealers(t, "key") {
		if _, err := s.Open([]byte{1, 2, 3}, nil); !errors.Is(err, ErrCiphertextTooShort) {
			t.Errorf("%s: expected ErrCiphertextTooShort, got %v", s.Algorithm(), err)
		}
	}
}
