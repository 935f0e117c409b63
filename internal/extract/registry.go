package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/hr-ingest/constants"
)

// Registry picks the text extractor for a routed format.
type Registry struct {
	xlsx  TextExtractor
	xls   TextExtractor
	docx  TextExtractor
	pdf   TextExtractor
	image TextExtractor
}

// NewRegistry wires the default adapters around one OCR engine.
func NewRegistry(engine OCREngine, logger *slog.Logger) *Registry {
	return &Registry{
		xlsx:  NewSpreadsheetExtractor(false, logger),
		xls:   NewSpreadsheetExtractor(true, logger),
		docx:  NewDOCXExtractor(logger),
		pdf:   NewPDFExtractor(engine, logger),
		image: NewImageExtractor(engine, logger),
	}
}

// For returns the extractor for format, or nil for csv and unsupported,
// which never go through text extraction.
func (r *Registry) For(format constants.Format, fileName string) TextExtractor {
	switch format {
	case constants.FormatExcel:
		if constants.IsLegacyExcel(fileName) {
			return r.xls
		}
		return r.xlsx
	case constants.FormatDOCX:
		return r.docx
	case constants.FormatPDF:
		return r.pdf
	case constants.FormatImage:
		return r.image
	default:
		return nil
	}
}

// Extract routes and runs in one step. Formats without an extractor yield an
// empty result with a warning.
func (r *Registry) Extract(ctx context.Context, format constants.Format, fileName string, data []byte) TextResult {
	x := r.For(format, fileName)
	if x == nil {
		return TextResult{Warnings: []string{"no text extractor for format " + string(format)}}
	}
	return x.Extract(ctx, data)
}
