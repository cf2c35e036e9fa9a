package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Provider map errors
const (
	// ErrCodeDuplicateProvider indicates two providers of the same type were
	// supplied to one map.
	ErrCodeDuplicateProvider ErrorCode = "DUPLICATE_PROVIDER"
	// ErrCodeProviderNotFound indicates a map holds no provider of the
	// requested type.
	ErrCodeProviderNotFound ErrorCode = "PROVIDER_NOT_FOUND"
	// ErrCodeTypeMismatch indicates a record was unwrapped as the wrong type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeSerialization indicates a provider payload could not be encoded.
	ErrCodeSerialization ErrorCode = "SERIALIZATION_FAILED"
	// ErrCodeDeserialization indicates stored or transported bytes could not
	// be decoded.
	ErrCodeDeserialization ErrorCode = "DESERIALIZATION_FAILED"
)

// Storage errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeDigestMismatch indicates stored content no longer matches its digest.
	ErrCodeDigestMismatch ErrorCode = "DIGEST_MISMATCH"
	// ErrCodeStorage indicates the backing store failed.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
	// ErrCodePayloadTooLarge indicates an upload exceeded the configured limit.
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeValidation indicates a document failed one or more field checks.
	ErrCodeValidation ErrorCode = "VALIDATION_FAILED"
)

// ErrCodeInternal indicates an internal error.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeStorage:            true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
