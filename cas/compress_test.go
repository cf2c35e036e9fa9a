package cas

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestCompressionNames(t *testing.T) {
	tests := []struct {
		name string
		want Compression
	}{
		{"", CompressionNone},
		{"none", CompressionNone},
		{"lz4", CompressionLZ4},
		{"zstd", CompressionZstd},
	}
	for _, tc := range tests {
		got, err := ParseCompression(tc.name)
		if err != nil || got != tc.want {
			t.Errorf("ParseCompression(%q) = %v, %v", tc.name, got, err)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("expected error for unknown compression")
	}
	if s := Compression(9).String(); s != "unknown(9)" {
		t.Errorf("String() = %q", s)
	}
}

func TestCompressRoundTrip(t *testing.T) {
	random := make([]byte, 4096)
	_, _ = rand.Read(random)

	inputs := map[string][]byte{
		"empty":      {},
		"tiny":       []byte("x"),
		"repetitive": bytes.Repeat([]byte("TypeID payload "), 500),
		"random":     random,
	}
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		for name, data := range inputs {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				tag, body, err := compress(data, c)
				if err != nil {
					t.Fatalf("compress: %v", err)
				}
				if tag != c && tag != CompressionNone {
					t.Fatalf("unexpected tag %s", tag)
				}
				if tag != CompressionNone && len(body) >= len(data) {
					t.Fatalf("compressed body not smaller: %d >= %d", len(body), len(data))
				}
				got, err := decompress(body, tag, len(data))
				if err != nil {
					t.Fatalf("decompress: %v", err)
				}
				if !bytes.Equal(got, data) {
					t.Fatal("round trip mismatch")
				}
			})
		}
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	data := bytes.Repeat([]byte("abc"), 300)
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		tag, body, _ := compress(data, c)
		if _, err := decompress(body, tag, len(data)+1); err == nil {
			t.Errorf("%s: expected size mismatch error", c)
		}
	}
}

func TestUnsupportedCompression(t *testing.T) {
	if _, _, err := compress([]byte("x"), Compression(7)); err == nil {
		t.Error("compress: expected error for unknown tag")
	}
	if _, err := decompress([]byte("x"), Compression(7), 1); err == nil {
		t.Error("decompress: expected error for unknown tag")
	}
}

func BenchmarkCompress(b *testing.B) {
	data := bytes.Repeat([]byte("provider map payload "), 4096)
	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		b.Run(c.String(), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				if _, _, err := compress(data, c); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
