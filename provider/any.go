package provider

import (
	"errors"
	"fmt"
	"slices"
)

// Any is a type-erased provider: its identifier and its encoded payload.
// It keeps no reference to the value it was created from.
type Any struct {
	id      TypeID
	payload []byte
}

// Wrap encodes p and captures its identifier.
func Wrap(p Provider) (Any, error) {
	if p == nil {
		return Any{}, &SerializationError{Err: errors.New("nil provider")}
	}
	id := p.TypeID()
	if id == "" {
		return Any{}, &SerializationError{Err: fmt.Errorf("%T declares an empty type identifier", p)}
	}
	payload, err := p.Encode()
	if err != nil {
		return Any{}, &SerializationError{ID: id, Err: err}
	}
	if payload == nil {
		payload = []byte{}
	}
	return Any{id: id, payload: slices.Clone(payload)}, nil
}

// ID returns the record's type identifier.
func (a Any) ID() TypeID { return a.id }

// Payload returns a copy of the encoded payload.
func (a Any) Payload() []byte { return slices.Clone(a.payload) }

// Size returns the payload length in bytes.
func (a Any) Size() int { return len(a.payload) }

// Unwrap decodes a as a P. It fails with a TypeMismatchError when a was not
// created from a P, and with a DeserializationError when decode rejects the
// payload.
func Unwrap[P Provider](a Any, decode Decoder[P]) (P, error) {
	var none P
	if want := IDOf[P](); a.id != want {
		return none, &TypeMismatchError{Expected: want, Actual: a.id}
	}
	if decode == nil {
		return none, &DeserializationError{ID: a.id, Err: errors.New("nil decoder")}
	}
	p, err := decode(slices.Clone(a.payload))
	if err != nil {
		return none, &DeserializationError{ID: a.id, Err: err}
	}
	return p, nil
}

// UnwrapAs decodes a as a P using the decoder registered for P's identifier.
func UnwrapAs[P Provider](a Any, reg *Registry) (P, error) {
	var none P
	want := IDOf[P]()
	if a.id != want {
		return none, &TypeMismatchError{Expected: want, Actual: a.id}
	}
	decoded, err := reg.decode(a)
	if err != nil {
		return none, err
	}
	p, ok := decoded.(P)
	if !ok {
		return none, &TypeMismatchError{Expected: want, Actual: decoded.TypeID()}
	}
	return p, nil
}
