package digest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/zeebo/blake3"
)

func TestOf_Deterministic(t *testing.T) {
	a := Of([]byte("provider map bytes"))
	b := Of([]byte("provider map bytes"))
	if a != b {
		t.Fatalf("same input produced different digests: %s != %s", a, b)
	}
	if a.IsZero() {
		t.Fatal("digest should not be zero")
	}
}

func TestOf_DifferentInput(t *testing.T) {
	if Of([]byte("a")) == Of([]byte("b")) {
		t.Fatal("different inputs produced the same digest")
	}
}

func TestOf_DomainSeparated(t *testing.T) {
	data := []byte("content")
	plain := blake3.Sum256(data)
	if Of(data) == Digest(plain) {
		t.Fatal("keyed digest must differ from unkeyed BLAKE3")
	}
}

func TestVerify(t *testing.T) {
	data := []byte("payload")
	d := Of(data)
	if !Verify(d, data) {
		t.Error("Verify should accept matching data")
	}
	if Verify(d, []byte("payload!")) {
		t.Error("Verify should reject modified data")
	}
}

func TestParse_Roundtrip(t *testing.T) {
	d := Of([]byte("x"))
	parsed, err := Parse(d.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed != d {
		t.Fatalf("roundtrip mismatch: %s != %s", parsed, d)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short", "abcd"},
		{"non-hex", strings.Repeat("zz", Size)},
		{"too long", strings.Repeat("ab", Size+1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.input); err == nil {
				t.Fatalf("expected error for %q", tc.input)
			}
		})
	}
}

func TestShort(t *testing.T) {
	d := Of([]byte("x"))
	if len(d.Short()) != 12 || !strings.HasPrefix(d.String(), d.Short()) {
		t.Errorf("unexpected short form %q of %q", d.Short(), d.String())
	}
}

func TestTextMarshaling(t *testing.T) {
	type envelope struct {
		Digest Digest `json:"digest"`
	}
	original := envelope{Digest: Of([]byte("y"))}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), original.Digest.String()) {
		t.Fatalf("expected hex digest in %s", data)
	}

	var decoded envelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Digest != original.Digest {
		t.Errorf("got %s, want %s", decoded.Digest, original.Digest)
	}
}
