package llm

import (
	"context"

	"github.com/joseph-ayodele/hr-ingest/internal/entity"
)

// ExtractRequest is the text pulled out of one uploaded document.
type ExtractRequest struct {
	Text     string
	FileName string
	Format   string
}

// EmployeeExtractor is the interface the import pipeline depends on. The raw
// bytes returned are the model content as received, kept for debugging.
type EmployeeExtractor interface {
	ExtractEmployees(ctx context.Context, req ExtractRequest) ([]entity.ExtractedRecord, []byte, error)
}
