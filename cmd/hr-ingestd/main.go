package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/hr-ingest/internal/auth"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/export"
	"github.com/joseph-ayodele/hr-ingest/internal/extract"
	"github.com/joseph-ayodele/hr-ingest/internal/ledger"
	"github.com/joseph-ayodele/hr-ingest/internal/llm/openai"
	"github.com/joseph-ayodele/hr-ingest/internal/objectstore"
	"github.com/joseph-ayodele/hr-ingest/internal/ocr"
	"github.com/joseph-ayodele/hr-ingest/internal/pipeline"
	repo "github.com/joseph-ayodele/hr-ingest/internal/repository"
	"github.com/joseph-ayodele/hr-ingest/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	jobsRepo := repo.NewImportJobRepository(db, logger)
	employeesRepo := repo.NewEmployeeRepository(db, logger)
	rolesRepo := repo.NewRoleRepository(db, logger)

	jobLedger := ledger.New(jobsRepo, logger)

	ocrEngine := ocr.NewExtractor(ocr.Config{
		Pdftotext:      cfg.OCR.Pdftotext,
		Pdftoppm:       cfg.OCR.Pdftoppm,
		Tesseract:      cfg.OCR.Tesseract,
		TesseractLang:  cfg.OCR.TesseractLang,
		TessdataDir:    cfg.OCR.TessdataDir,
		MaxPages:       cfg.OCR.MaxPages,
		PSM:            6,
		MaxImageDim:    cfg.OCR.MaxImageDim,
		CommandTimeout: cfg.OCR.CommandTimeout,
	}, logger)
	registry := extract.NewRegistry(ocrEngine, logger)

	aiClient := openai.NewClient(openai.Config{
		APIKey:        cfg.LLM.APIKey,
		BaseURL:       cfg.LLM.BaseURL,
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
		Timeout:       cfg.LLM.Timeout,
		MaxInputChars: cfg.OCR.MaxPromptChars,
	}, logger)

	uploader := objectstore.NewUploader(cfg.ObjectStore, logger)

	processor := pipeline.NewProcessor(logger, uploader, jobLedger, registry, aiClient, cfg.ObjectStore.KeyPrefix)
	router := server.NewRouter(server.Deps{
		Importer:       processor,
		Jobs:           jobLedger,
		Bulk:           pipeline.NewBulk(logger, employeesRepo),
		Export:         export.NewService(jobLedger, logger),
		Auth:           auth.New(cfg.Auth, rolesRepo, logger),
		DB:             db,
		Logger:         logger,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := server.NewGRPCHealth(logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	go reapStaleJobs(ctx, jobLedger, cfg.Import, logger)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("hr-ingest listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case err := <-errCh:
		logger.Error("server failed", "error", err)
	}

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("stopped")
}

// reapStaleJobs fails jobs left in processing by a crash, once at startup
// and then every ReapInterval.
func reapStaleJobs(ctx context.Context, l *ledger.Ledger, cfg common.ImportConfig, logger *slog.Logger) {
	if cfg.StaleJobAfter <= 0 {
		return
	}
	interval := cfg.ReapInterval
	if interval <= 0 {
		interval = time.Minute
	}
	reap := func() {
		if n, err := l.ReapStale(ctx, cfg.StaleJobAfter); err != nil && ctx.Err() == nil {
			logger.Error("reaper.failed", "error", err)
		} else if n > 0 {
			logger.Info("reaper.ok", "reaped", n)
		}
	}

	reap()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reap()
		}
	}
}
