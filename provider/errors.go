package provider

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrDuplicate       = errors.New("provider: duplicate provider")
	ErrNotFound        = errors.New("provider: provider not found")
	ErrTypeMismatch    = errors.New("provider: type mismatch")
	ErrSerialization   = errors.New("provider: serialization failed")
	ErrDeserialization = errors.New("provider: deserialization failed")

	// ErrUnregistered is the cause of a DeserializationError for a record
	// whose identifier has no decoder in the registry consulted.
	ErrUnregistered = errors.New("provider: no decoder registered")
)

// DuplicateError is returned by Build when two providers share an identifier.
type DuplicateError struct {
	ID TypeID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("provider: multiple providers of type %q", e.ID)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// NotFoundError is returned by Get when the map holds no provider of the
// requested type.
type NotFoundError struct {
	ID TypeID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("provider: no provider of type %q", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TypeMismatchError is returned when a record is unwrapped as a type other
// than the one it was created from. Lookups through a Map dispatch on the
// identifier and cannot produce it.
type TypeMismatchError struct {
	Expected TypeID
	Actual   TypeID
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("provider: expected type %q, record holds %q", e.Expected, e.Actual)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// SerializationError wraps a failure of a provider's own Encode.
type SerializationError struct {
	ID  TypeID
	Err error
}

func (e *SerializationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("provider: serialization failed: %v", e.Err)
	}
	return fmt.Sprintf("provider: serializing %q: %v", e.ID, e.Err)
}

func (e *SerializationError) Unwrap() error        { return e.Err }
func (e *SerializationError) Is(target error) bool { return target == ErrSerialization }

// DeserializationError reports bytes that could not be decoded: a payload
// malformed for its type, or a serialized map that is truncated, corrupted or
// violates the ordering invariant. ID is empty for map-level failures.
type DeserializationError struct {
	ID  TypeID
	Err error
}

func (e *DeserializationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("provider: decoding map: %v", e.Err)
	}
	return fmt.Sprintf("provider: decoding %q: %v", e.ID, e.Err)
}

func (e *DeserializationError) Unwrap() error        { return e.Err }
func (e *DeserializationError) Is(target error) bool { return target == ErrDeserialization }
