package server

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/hr-ingest/internal/common"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := common.HTTPStatus(err)
	if status >= 500 {
		logger.Error("http.handler.failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, ErrorResponse{
		Error:     err.Error(),
		Code:      common.ErrorCode(err),
		RequestID: common.RequestIDFromContext(c.Request.Context()),
	})
}

func badRequest(message string, cause error) error {
	if cause == nil {
		return common.NewAppError("INVALID_INPUT", message, common.ErrInvalidInput)
	}
	return common.NewAppError("INVALID_INPUT", message, fmt.Errorf("%w: %w", common.ErrInvalidInput, cause))
}
