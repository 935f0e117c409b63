package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/hr-ingest/internal/entity"
	"github.com/joseph-ayodele/hr-ingest/internal/normalize"
	"github.com/joseph-ayodele/hr-ingest/internal/pipeline"
)

type BulkRequest struct {
	CSV          string `json:"csv" binding:"required"`
	DryRun       bool   `json:"dryRun"`
	AllowInvalid bool   `json:"allowInvalid"`
}

// validateEmployee re-runs strict validation on a draft edited during review.
func (h *handlers) validateEmployee(c *gin.Context) {
	var draft entity.EmployeeRecordDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondError(c, h.Logger, badRequest("malformed employee draft", err))
		return
	}
	c.JSON(http.StatusOK, normalize.Revalidate(draft, normalize.Options{Strict: true}))
}

func (h *handlers) bulkPreview(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, badRequest("malformed bulk request", err))
		return
	}
	res, err := h.Bulk.Preview(c.Request.Context(), []byte(req.CSV))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) bulkCommit(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, badRequest("malformed bulk request", err))
		return
	}
	res, err := h.Bulk.Commit(c.Request.Context(), []byte(req.CSV), pipeline.CommitOptions{
		DryRun:       req.DryRun,
		AllowInvalid: req.AllowInvalid,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
