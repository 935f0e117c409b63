package openai

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
	"github.com/joseph-ayodele/hr-ingest/internal/llm"
)

var _ llm.EmployeeExtractor = (*Client)(nil)

// ExtractEmployees implements llm.EmployeeExtractor using text-only
// chat/completions. Any failure to obtain an array is an AIExtractionError;
// no partial result is returned with it.
func (c *Client) ExtractEmployees(ctx context.Context, req llm.ExtractRequest) ([]entity.ExtractedRecord, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"file", req.FileName,
		"format", req.Format,
	)

	content, raw, err := c.complete(ctx, rid, chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: llm.BuildSystemPrompt()},
			{Role: "user", Content: llm.BuildUserPrompt(req, c.cfg.MaxInputChars)},
		},
	})
	if err != nil {
		c.log.Error("llm.extract.failed",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, err
	}
	rawContent := []byte(content)

	items, err := llm.ParseJSONLenient(content)
	if err != nil {
		c.log.Error("llm.extract.parse_failed",
			"req_id", rid, "error", err, "content", llm.Truncate(content, 500),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, rawContent, &common.AIExtractionError{Reason: "parse response", Err: err}
	}

	records, dropped, err := llm.DecodeEmployees(items, c.log)
	if err != nil {
		return nil, rawContent, &common.AIExtractionError{Reason: "item schema", Err: err}
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"items", len(items),
		"records", len(records),
		"dropped", dropped,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return records, rawContent, nil
}
