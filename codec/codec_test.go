package codec

import (
	"bytes"
	"strings"
	"testing"
)

type sampleRecord struct {
	Target  string            `json:"target"`
	Outputs []string          `json:"outputs"`
	Labels  map[string]string `json:"labels,omitempty"`
	Count   int               `json:"count"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRecord{
		Target:  "//app:server",
		Outputs: []string{"bin/server", "bin/server.debug"},
		Count:   2,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Target != original.Target || decoded.Count != original.Count {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
	if len(decoded.Outputs) != 2 || decoded.Outputs[1] != "bin/server.debug" {
		t.Errorf("outputs mismatch: %v", decoded.Outputs)
	}
}

func TestMarshalDeterministicMapKeys(t *testing.T) {
	// Go map iteration order is random; the encoding must not be.
	labels := map[string]string{}
	for _, k := range []string{"zeta", "alpha", "mid", "beta", "omega"} {
		labels[k] = k + "-value"
	}
	record := sampleRecord{Target: "t", Labels: labels}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Marshal(record)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding %d differs: %x != %x", i, again, first)
		}
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var record sampleRecord
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &record); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestWellformed(t *testing.T) {
	data, err := Marshal([]int{1, 2, 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := Wellformed(data); err != nil {
		t.Errorf("Wellformed(valid) = %v", err)
	}
	if err := Wellformed(data[:len(data)-1]); err == nil {
		t.Error("Wellformed should reject truncated data")
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	records := []sampleRecord{
		{Target: "a", Count: 1},
		{Target: "b", Count: 2},
	}

	var buffer bytes.Buffer
	enc := NewEncoder(&buffer)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	dec := NewDecoder(&buffer)
	for i, want := range records {
		var got sampleRecord
		if err := dec.Decode(&got); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if got.Target != want.Target || got.Count != want.Count {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"target": "//lib:core"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"//lib:core"`) {
		t.Errorf("notation %q does not contain the target", notation)
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"cbor", NameCBOR, false},
		{"", NameCBOR, false},
		{"json", NameJSON, false},
		{"gob", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Lookup(tc.name)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Name() != tc.want {
				t.Errorf("expected %q, got %q", tc.want, c.Name())
			}
		})
	}
}

func TestCodecsRoundtrip(t *testing.T) {
	for _, c := range []Codec{CBOR, JSON} {
		t.Run(c.Name(), func(t *testing.T) {
			original := sampleRecord{Target: "//x:y", Outputs: []string{"o"}, Count: 7}
			data, err := c.Marshal(original)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var decoded sampleRecord
			if err := c.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if decoded.Target != original.Target || decoded.Count != original.Count {
				t.Errorf("got %+v, want %+v", decoded, original)
			}
		})
	}
}

func TestJSONRejectsUnknownFields(t *testing.T) {
	var decoded sampleRecord
	err := JSON.Unmarshal([]byte(`{"target":"a","bogus":1}`), &decoded)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestJSONRejectsTrailingData(t *testing.T) {
	var decoded sampleRecord
	err := JSON.Unmarshal([]byte(`{"target":"a"} {"target":"b"}`), &decoded)
	if err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func BenchmarkMarshal(b *testing.B) {
	record := sampleRecord{Target: "//app:server", Outputs: []string{"a", "b"}, Count: 2}
	b.ReportAllocs()
	for b.Loop() {
		Marshal(record)
	}
}
