package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/rulekit/cas"
	apperrors "github.com/kbukum/rulekit/errors"
)

// toAppError maps backend and provider errors onto the HTTP error model.
func toAppError(err error, resource string, d cas.Digest) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	if appErr, ok := apperrors.FromProviderError(err); ok {
		return appErr
	}
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, cas.ErrNotFound):
		return apperrors.NotFound(resource, d.String())
	case errors.Is(err, cas.ErrDigestMismatch):
		return apperrors.DigestMismatch(d.String()).WithCause(err)
	case errors.Is(err, cas.ErrLockTimeout):
		return apperrors.Timeout("cache write").WithCause(err)
	case errors.As(err, &maxErr):
		return apperrors.PayloadTooLarge(maxErr.Limit)
	default:
		return apperrors.Storage(err)
	}
}

// respondError renders err and records it on the gin context so the
// telemetry middleware can attach it to the request span.
func respondError(c *gin.Context, err error, resource string, d cas.Digest) {
	_ = c.Error(err)
	appErr := toAppError(err, resource, d)
	if c.Request.Method == http.MethodHead {
		c.AbortWithStatus(appErr.HTTPStatus)
		return
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
