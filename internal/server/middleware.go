package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/internal/auth"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
)

const (
	headerRequestID = "X-Request-ID"
	callerKey       = "caller"
)

// RequestID propagates or assigns X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", common.RequestIDFromContext(c.Request.Context()),
		}
		if userID, _ := common.CallerFromContext(c.Request.Context()); userID != "" {
			attrs = append(attrs, "user_id", userID)
		}
		switch {
		case status >= 500:
			logger.Error("http.request", attrs...)
		case status >= 400:
			logger.Warn("http.request", attrs...)
		default:
			logger.Info("http.request", attrs...)
		}
	}
}

// RequireImportRole rejects callers without a valid token (401) or without
// an import role (403).
func RequireImportRole(a Authorizer, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := a.Authorize(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			respondError(c, logger, err)
			c.Abort()
			return
		}
		c.Set(callerKey, caller)
		c.Request = c.Request.WithContext(common.WithCaller(c.Request.Context(), caller.UserID, caller.Role))
		c.Next()
	}
}

func callerFrom(c *gin.Context) *auth.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(*auth.Caller); ok {
			return caller
		}
	}
	return &auth.Caller{}
}
