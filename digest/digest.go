package digest

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Size is the length of a digest in bytes.
const Size = 32

// Digest is a BLAKE3 keyed hash of some content.
type Digest [Size]byte

// domainKey is the ASCII of "rulekit.content", zero-padded to 32 bytes.
var domainKey = [32]byte{
	'r', 'u', 'l', 'e', 'k', 'i', 't', '.', 'c', 'o', 'n', 't', 'e', 'n', 't', 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Of returns the digest of data.
func Of(data []byte) Digest {
	hasher, err := blake3.NewKeyed(domainKey[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)

	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}

// Verify reports whether data hashes to d.
func Verify(d Digest, data []byte) bool {
	return Of(data) == d
}

// String returns the hex encoding of d.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, for log lines.
func (d Digest) Short() string {
	return d.String()[:12]
}

// IsZero reports whether d is the zero value.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Parse parses a hex-encoded digest. The string must be exactly 64 hex
// characters.
func Parse(s string) (Digest, error) {
	var d Digest
	if len(s) != hex.EncodedLen(Size) {
		return d, fmt.Errorf("digest: %q is %d characters, want %d", s, len(s), hex.EncodedLen(Size))
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("digest: parsing %q: %w", s, err)
	}
	copy(d[:], decoded)
	return d, nil
}
