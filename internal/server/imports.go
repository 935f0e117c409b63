package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
	"github.com/joseph-ayodele/hr-ingest/internal/pipeline"
	"github.com/joseph-ayodele/hr-ingest/internal/repository"
)

// ImportRequest carries the file inline; fileData is base64 in JSON.
type ImportRequest struct {
	FileName string `json:"fileName" binding:"required"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
	FileData []byte `json:"fileData" binding:"required"`
}

type ImportResponse struct {
	Success   bool                         `json:"success"`
	Employees []entity.EmployeeRecordDraft `json:"employees"`
	ImportID  uuid.UUID                    `json:"importId"`
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handlers) createImport(c *gin.Context) {
	// base64 inflates by 4/3; leave room for the other fields
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes/3*4+64<<10)

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, badRequest("malformed import request", err))
		return
	}
	if int64(len(req.FileData)) > h.MaxUploadBytes {
		respondError(c, h.Logger, badRequest("file exceeds the upload limit", nil))
		return
	}
	if req.FileSize > 0 && req.FileSize != int64(len(req.FileData)) {
		h.Logger.Warn("import.size_mismatch", "declared", req.FileSize, "actual", len(req.FileData))
	}

	caller := callerFrom(c)
	res, err := h.Importer.Process(c.Request.Context(), pipeline.Upload{
		FileName:   req.FileName,
		MimeType:   req.FileType,
		Data:       req.FileData,
		UploadedBy: caller.UserID,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	employees := res.Employees
	if employees == nil {
		employees = []entity.EmployeeRecordDraft{}
	}
	c.JSON(http.StatusOK, ImportResponse{Success: true, Employees: employees, ImportID: res.Job.ID})
}

func (h *handlers) getImport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, badRequest("import id must be a UUID", err))
		return
	}
	job, err := h.Jobs.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *handlers) listImports(c *gin.Context) {
	f := repository.JobFilter{
		UploadedBy: strings.TrimSpace(c.Query("uploadedBy")),
		Status:     constants.JobStatus(strings.TrimSpace(c.Query("status"))),
	}
	if c.Query("mine") == "true" {
		f.UploadedBy = callerFrom(c).UserID
	}
	var err error
	if f.Limit, err = intQuery(c, "limit"); err != nil {
		respondError(c, h.Logger, badRequest("limit must be an integer", err))
		return
	}
	if f.Offset, err = intQuery(c, "offset"); err != nil {
		respondError(c, h.Logger, badRequest("offset must be an integer", err))
		return
	}
	jobs, err := h.Jobs.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if jobs == nil {
		jobs = []*entity.ImportJob{}
	}
	c.JSON(http.StatusOK, gin.H{"imports": jobs})
}

func (h *handlers) exportImport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, badRequest("import id must be a UUID", err))
		return
	}
	b, err := h.Export.ExportJobXLSX(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="import-`+id.String()+`.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, b)
}

func intQuery(c *gin.Context, key string) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
