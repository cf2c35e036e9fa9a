// Package errors provides the structured error type rulekit surfaces to
// callers outside the process: the cache server's HTTP responses and the
// command-line tools.
//
// Library packages return their own typed errors (provider.DuplicateProviderError,
// cas.ErrNotFound, ...). At an outer boundary, [FromError] folds them into an
// [AppError] carrying a machine-readable code, an HTTP status and a retryable
// flag, rendered following RFC 7807.
package errors
