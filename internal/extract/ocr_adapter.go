package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/hr-ingest/internal/ocr"
)

// OCREngine is the subset of *ocr.Extractor the adapters use.
type OCREngine interface {
	PDFText(ctx context.Context, data []byte) (ocr.Result, error)
	PDFOCR(ctx context.Context, data []byte) (ocr.Result, error)
	ImageOCR(ctx context.Context, data []byte) (ocr.Result, error)
}

// PDFExtractor reads the text layer and falls back to OCR when it is empty,
// which is the usual case for scanned documents.
type PDFExtractor struct {
	e      OCREngine
	logger *slog.Logger
}

func NewPDFExtractor(e OCREngine, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{e: e, logger: logger}
}

func (p *PDFExtractor) Extract(ctx context.Context, data []byte) TextResult {
	res, err := p.e.PDFText(ctx, data)
	out := fromOCR(res)
	if err != nil {
		p.logger.Warn("extract.pdf.text_failed", "error", err)
		out.Warnings = append(out.Warnings, err.Error())
	}
	if !out.Empty() {
		return out
	}

	p.logger.Info("extract.pdf.ocr_fallback", "pages", res.Pages)
	ocrRes, err := p.e.PDFOCR(ctx, data)
	fallback := fromOCR(ocrRes)
	fallback.Warnings = append(out.Warnings, fallback.Warnings...)
	fallback.Duration += out.Duration
	if err != nil {
		p.logger.Warn("extract.pdf.ocr_failed", "error", err)
		fallback.Warnings = append(fallback.Warnings, err.Error())
		fallback.Text = ""
	}
	return fallback
}

// ImageExtractor OCRs a single image.
type ImageExtractor struct {
	e      OCREngine
	logger *slog.Logger
}

func NewImageExtractor(e OCREngine, logger *slog.Logger) *ImageExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageExtractor{e: e, logger: logger}
}

func (i *ImageExtractor) Extract(ctx context.Context, data []byte) TextResult {
	res, err := i.e.ImageOCR(ctx, data)
	out := fromOCR(res)
	if err != nil {
		i.logger.Warn("extract.image.ocr_failed", "error", err)
		out.Warnings = append(out.Warnings, err.Error())
		out.Text = ""
	}
	return out
}

func fromOCR(r ocr.Result) TextResult {
	return TextResult{
		Text:     r.Text,
		Pages:    r.Pages,
		Method:   r.Method,
		Duration: r.Duration,
		Warnings: r.Warnings,
	}
}
