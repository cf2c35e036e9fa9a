package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/kbukum/rulekit/errors"
	"github.com/kbukum/rulekit/logger"
	"github.com/kbukum/rulekit/observability"
)

const requestIDHeader = "X-Request-Id"

// recovery turns a handler panic into a 500 with an error body.
func recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("Panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apperrors.Internal(fmt.Errorf("panic: %v", err)).ToResponse())
			}
		}()
		c.Next()
	}
}

// requestID propagates or assigns an X-Request-Id and stores it in the
// request context for logging.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(logger.FieldRequestID, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// telemetry opens a span per request and records request metrics.
func telemetry(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		op := c.Request.Method + " " + c.FullPath()
		oc := observability.NewOperationContext(ServiceName, op, c.GetString(logger.FieldRequestID), metrics)
		ctx, span := oc.StartSpanForOperation(c.Request.Context(), observability.SpanHTTPRequest)
		c.Request = c.Request.WithContext(observability.WithOperationContext(ctx, oc))

		c.Next()

		status := "ok"
		var err error
		if c.Writer.Status() >= http.StatusInternalServerError {
			status = "error"
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
		}
		oc.EndOperation(ctx, span, status, err)
	}
}

// requestLogger logs each request at a level chosen by its status code.
// Health probes are skipped.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		status := c.Writer.Status()

		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			logger.FieldStatus, status,
			logger.FieldDuration, time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
		)
		l := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			l.Error("Request completed", fields)
		case status >= 400 && status != http.StatusNotFound:
			l.Warn("Request completed", fields)
		default:
			l.Debug("Request completed", fields)
		}
	}
}
