package errors

import (
	stderrors "errors"

	"github.com/kbukum/rulekit/provider"
)

// FromProviderError converts an error returned by the provider package into
// an AppError. It returns false when err carries no provider error.
func FromProviderError(err error) (*AppError, bool) {
	var (
		dup      *provider.DuplicateError
		notFound *provider.NotFoundError
		mismatch *provider.TypeMismatchError
		serr     *provider.SerializationError
		derr     *provider.DeserializationError
	)
	switch {
	case stderrors.As(err, &dup):
		return DuplicateProvider(string(dup.ID)).WithCause(err), true
	case stderrors.As(err, &notFound):
		return ProviderNotFound(string(notFound.ID)).WithCause(err), true
	case stderrors.As(err, &mismatch):
		return TypeMismatch(string(mismatch.Expected), string(mismatch.Actual)).WithCause(err), true
	case stderrors.As(err, &serr):
		return Serialization(err), true
	case stderrors.As(err, &derr):
		appErr := Deserialization(err)
		if derr.ID != "" {
			appErr.WithDetail("type_id", string(derr.ID))
		}
		return appErr, true
	}
	return nil, false
}
