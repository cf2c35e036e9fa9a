package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec encodes and decodes provider payloads.
type Codec interface {
	// Name identifies the codec in diagnostics and config.
	Name() string
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v, which must be a pointer.
	Unmarshal(data []byte, v any) error
}

// Codec names accepted by [Lookup].
const (
	NameCBOR = "cbor"
	NameJSON = "json"
)

var (
	// CBOR is the deterministic CBOR codec.
	CBOR Codec = cborCodec{}
	// JSON is the encoding/json codec with compact output and strict field
	// matching on decode.
	JSON Codec = jsonCodec{}
)

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, error) {
	switch name {
	case NameCBOR, "":
		return CBOR, nil
	case NameJSON:
		return JSON, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}

type cborCodec struct{}

func (cborCodec) Name() string                       { return NameCBOR }
func (cborCodec) Marshal(v any) ([]byte, error)      { return Marshal(v) }
func (cborCodec) Unmarshal(data []byte, v any) error { return Unmarshal(data, v) }

type jsonCodec struct{}

func (jsonCodec) Name() string { return NameJSON }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("codec: trailing data after JSON value")
	}
	return nil
}
