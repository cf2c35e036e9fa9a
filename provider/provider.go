package provider

import "reflect"

// TypeID names a concrete provider type. It is declared by the type itself
// and must be unique across every type linked into the program.
type TypeID string

// Provider is a typed result that can be carried in a Map.
//
// TypeID must not depend on the receiver's contents. For pointer types it
// must be callable on a freshly allocated zero value.
type Provider interface {
	TypeID() TypeID
	Encode() ([]byte, error)
}

// Decoder reconstructs a P from the payload produced by P's Encode.
type Decoder[P Provider] func(payload []byte) (P, error)

// IDOf returns the identifier P declares.
func IDOf[P Provider]() TypeID {
	return zero[P]().TypeID()
}

// zero returns a usable zero P; for pointer types a pointer to a new zero
// element rather than nil.
func zero[P Provider]() P {
	var p P
	if t := reflect.TypeFor[P](); t.Kind() == reflect.Pointer {
		p = reflect.New(t.Elem()).Interface().(P)
	}
	return p
}
