// Package pipeline runs uploads through storage, parsing, AI extraction and
// normalization, recording every step in the import ledger.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
	"github.com/joseph-ayodele/hr-ingest/internal/extract"
	"github.com/joseph-ayodele/hr-ingest/internal/ledger"
	"github.com/joseph-ayodele/hr-ingest/internal/llm"
	"github.com/joseph-ayodele/hr-ingest/internal/normalize"
	"github.com/joseph-ayodele/hr-ingest/internal/objectstore"
	"github.com/joseph-ayodele/hr-ingest/internal/parser"
)

const defaultContentType = "application/octet-stream"

// Upload is one file handed in by an authenticated caller.
type Upload struct {
	FileName   string
	MimeType   string
	Data       []byte
	UploadedBy string
}

// Result is what a successful Process returns to the caller.
type Result struct {
	Job       *entity.ImportJob
	Format    constants.Format
	Employees []entity.EmployeeRecordDraft
}

// TextSource pulls text out of non-CSV uploads. *extract.Registry implements it.
type TextSource interface {
	Extract(ctx context.Context, format constants.Format, fileName string, data []byte) extract.TextResult
}

// Processor coordinates upload, ledger, text extraction and AI parsing.
type Processor struct {
	Logger    *slog.Logger
	Store     objectstore.Putter
	Ledger    *ledger.Ledger
	Text      TextSource
	AI        llm.EmployeeExtractor
	KeyPrefix string
}

func NewProcessor(logger *slog.Logger, store objectstore.Putter, l *ledger.Ledger, text TextSource, ai llm.EmployeeExtractor, keyPrefix string) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Store: store, Ledger: l, Text: text, AI: ai, KeyPrefix: keyPrefix}
}

// Process stores the original file, then parses it. The returned error is
// either an UploadError (the job was recorded as rejected) or the stage error
// that failed the job.
func (p *Processor) Process(ctx context.Context, up Upload) (*Result, error) {
	id := uuid.New()
	key := objectstore.ObjectKey(p.KeyPrefix, up.UploadedBy, up.FileName, id)
	contentType := up.MimeType
	if contentType == "" {
		contentType = defaultContentType
	}
	meta := ledger.NewUpload{
		ID:            id,
		FileName:      up.FileName,
		FileKey:       key,
		MimeType:      up.MimeType,
		FileSizeBytes: int64(len(up.Data)),
		UploadedBy:    up.UploadedBy,
	}

	start := time.Now()
	if err := p.Store.Put(ctx, key, contentType, up.Data); err != nil {
		p.Logger.Error("pipeline.upload.failed", "file_name", up.FileName, "key", key, "err", err)
		if _, recErr := p.Ledger.RecordRejected(ctx, meta, err); recErr != nil {
			p.Logger.Error("pipeline.upload.record_failed", "file_name", up.FileName, "err", recErr)
		}
		return nil, err
	}
	p.Logger.Info("pipeline.upload.ok", "key", key, "bytes", len(up.Data), "duration", time.Since(start))

	job, err := p.Ledger.Create(ctx, meta)
	if err != nil {
		return nil, err
	}
	if err := p.Ledger.Start(ctx, job); err != nil {
		return nil, err
	}

	format := constants.DetectFormat(up.FileName, up.MimeType)
	employees, err := p.parse(ctx, job, format, up)
	if err != nil {
		p.Logger.Error("pipeline.parse.failed", "job_id", job.ID, "format", format, "err", err)
		if failErr := p.Ledger.Fail(ctx, job, err); failErr != nil {
			p.Logger.Error("pipeline.ledger.fail_failed", "job_id", job.ID, "err", failErr)
		}
		return nil, err
	}

	if err := p.Ledger.Succeed(ctx, job, employees, string(format)); err != nil {
		return nil, err
	}
	p.Logger.Info("pipeline.parse.ok",
		"job_id", job.ID,
		"format", format,
		"total", len(employees),
		"invalid", normalize.CountInvalid(employees),
		"duration", time.Since(start),
	)
	return &Result{Job: job, Format: format, Employees: employees}, nil
}

func (p *Processor) parse(ctx context.Context, job *entity.ImportJob, format constants.Format, up Upload) ([]entity.EmployeeRecordDraft, error) {
	opts := normalize.Options{Strict: false}
	switch format {
	case constants.FormatUnsupported:
		return nil, &common.UnsupportedFormatError{FileName: up.FileName, MimeType: up.MimeType}
	case constants.FormatCSV:
		raws, err := parser.ParseCSV(up.Data)
		if err != nil {
			return nil, err
		}
		return normalize.All(raws, opts), nil
	}

	text := p.Text.Extract(ctx, format, up.FileName, up.Data)
	for _, w := range text.Warnings {
		p.Logger.Warn("pipeline.extract.warning", "job_id", job.ID, "method", text.Method, "warning", w)
	}
	if text.Empty() {
		p.Logger.Info("pipeline.extract.empty", "job_id", job.ID, "format", format, "method", text.Method)
		return []entity.EmployeeRecordDraft{}, nil
	}
	p.Logger.Info("pipeline.extract.ok",
		"job_id", job.ID, "method", text.Method, "pages", text.Pages,
		"chars", len(text.Text), "duration", text.Duration,
	)

	recs, _, err := p.AI.ExtractEmployees(ctx, llm.ExtractRequest{
		Text:     text.Text,
		FileName: up.FileName,
		Format:   string(format),
	})
	if err != nil {
		return nil, fmt.Errorf("extract employees: %w", err)
	}
	raws := make([]entity.RawRecord, len(recs))
	for i, r := range recs {
		raws[i] = r.Raw(i + 1)
	}
	return normalize.All(raws, opts), nil
}
