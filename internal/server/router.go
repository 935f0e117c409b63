// Package server exposes the import pipeline over HTTP (gin) and a gRPC
// health endpoint.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/internal/auth"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
	"github.com/joseph-ayodele/hr-ingest/internal/pipeline"
	"github.com/joseph-ayodele/hr-ingest/internal/repository"
)

type Importer interface {
	Process(ctx context.Context, up pipeline.Upload) (*pipeline.Result, error)
}

type JobReader interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error)
	List(ctx context.Context, f repository.JobFilter) ([]*entity.ImportJob, error)
}

type BulkImporter interface {
	Preview(ctx context.Context, csv []byte) (*pipeline.PreviewResult, error)
	Commit(ctx context.Context, csv []byte, opts pipeline.CommitOptions) (*pipeline.CommitResult, error)
}

type Exporter interface {
	ExportJobXLSX(ctx context.Context, jobID uuid.UUID) ([]byte, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, authorization string) (*auth.Caller, error)
}

type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// Deps are the services the HTTP API is built on.
type Deps struct {
	Importer       Importer
	Jobs           JobReader
	Bulk           BulkImporter
	Export         Exporter
	Auth           Authorizer
	DB             Pinger
	Logger         *slog.Logger
	MaxUploadBytes int64
}

// NewRouter wires every route. /health is public, /api/v1 needs an import role.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 10 << 20
	}
	h := &handlers{Deps: d}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(d.Logger))

	router.GET("/health", h.health)

	api := router.Group("/api/v1")
	api.Use(RequireImportRole(d.Auth, d.Logger))
	{
		api.POST("/imports", h.createImport)
		api.GET("/imports", h.listImports)
		api.GET("/imports/:id", h.getImport)
		api.GET("/imports/:id/export.xlsx", h.exportImport)

		api.POST("/employees/validate", h.validateEmployee)
		api.POST("/employees/bulk/preview", h.bulkPreview)
		api.POST("/employees/bulk/commit", h.bulkCommit)
	}
	return router
}

type handlers struct {
	Deps
}
