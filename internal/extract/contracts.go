// Package extract turns non-CSV uploads into plain text for AI extraction.
// Adapters are best effort: they never return an error, only warnings and
// possibly empty text.
package extract

import (
	"context"
	"time"
)

// TextExtractor converts raw file bytes to text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) TextResult
}

type TextResult struct {
	Text     string
	Pages    int
	Method   string // "xlsx" | "xls" | "docx" | "pdf-text" | "pdf-ocr" | "image-ocr"
	Duration time.Duration
	Warnings []string
}

// Empty reports whether the result holds no usable text.
func (r TextResult) Empty() bool {
	for _, c := range r.Text {
		if c != ' ' && c != '\n' && c != '\t' && c != '\r' && c != '\f' {
			return false
		}
	}
	return true
}

// ExtractorFunc adapts a plain function to TextExtractor.
type ExtractorFunc func(ctx context.Context, data []byte) TextResult

func (f ExtractorFunc) Extract(ctx context.Context, data []byte) TextResult { return f(ctx, data) }
