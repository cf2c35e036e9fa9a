package provider

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kbukum/rulekit/codec"
	"github.com/kbukum/rulekit/digest"
)

// wireVersion is the envelope version written by Marshal.
const wireVersion = 1

type wireMap struct {
	Version   uint         `cbor:"v"`
	Providers []wireRecord `cbor:"providers"`
}

type wireRecord struct {
	_       struct{} `cbor:",toarray"`
	ID      string
	Payload []byte
}

// Marshal returns the canonical encoding of the map: a deterministic CBOR
// envelope listing every record as an [identifier, payload] pair in map
// order. Equal maps always marshal to identical bytes.
func (m *Map) Marshal() ([]byte, error) {
	records := m.all()
	wire := wireMap{
		Version:   wireVersion,
		Providers: make([]wireRecord, len(records)),
	}
	for i, r := range records {
		wire.Providers[i] = wireRecord{ID: string(r.id), Payload: r.payload}
	}
	data, err := codec.Marshal(wire)
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	return data, nil
}

// Unmarshal decodes bytes produced by Marshal. Records are not re-encoded
// or re-wrapped, but ordering and uniqueness are re-checked: bytes that
// violate them were corrupted in transport or storage and are rejected
// with a DeserializationError.
func Unmarshal(data []byte) (*Map, error) {
	if len(data) == 0 {
		return nil, &DeserializationError{Err: errors.New("empty input")}
	}

	var wire wireMap
	if err := codec.Unmarshal(data, &wire); err != nil {
		return nil, &DeserializationError{Err: err}
	}
	if wire.Version != wireVersion {
		return nil, &DeserializationError{Err: fmt.Errorf("unsupported envelope version %d", wire.Version)}
	}

	records := make([]Any, len(wire.Providers))
	for i, w := range wire.Providers {
		id := TypeID(w.ID)
		if id == "" {
			return nil, &DeserializationError{Err: fmt.Errorf("record %d has an empty type identifier", i)}
		}
		if i > 0 && id <= records[i-1].id {
			if id == records[i-1].id {
				return nil, &DeserializationError{ID: id, Err: fmt.Errorf("duplicate record at index %d", i)}
			}
			return nil, &DeserializationError{ID: id, Err: fmt.Errorf("record %d out of order after %q", i, records[i-1].id)}
		}
		payload := w.Payload
		if payload == nil {
			payload = []byte{}
		}
		records[i] = Any{id: id, payload: payload}
	}

	return &Map{records: records}, nil
}

// Digest returns the content address of the map's canonical encoding.
func (m *Map) Digest() (digest.Digest, error) {
	data, err := m.Marshal()
	if err != nil {
		return digest.Digest{}, err
	}
	return digest.Of(data), nil
}

// MarshalCBOR encodes the map as a single CBOR byte string holding its
// canonical encoding, so a Map can be a field of a larger document.
func (m *Map) MarshalCBOR() ([]byte, error) {
	data, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	return codec.Marshal(data)
}

// UnmarshalCBOR implements the inverse of MarshalCBOR.
func (m *Map) UnmarshalCBOR(data []byte) error {
	var inner []byte
	if err := codec.Unmarshal(data, &inner); err != nil {
		return &DeserializationError{Err: err}
	}
	decoded, err := Unmarshal(inner)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}

// MarshalJSON encodes the map as a base64 JSON string of its canonical
// encoding.
func (m *Map) MarshalJSON() ([]byte, error) {
	data, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

// UnmarshalJSON implements the inverse of MarshalJSON.
func (m *Map) UnmarshalJSON(data []byte) error {
	var inner []byte
	if err := json.Unmarshal(data, &inner); err != nil {
		return &DeserializationError{Err: err}
	}
	decoded, err := Unmarshal(inner)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}
