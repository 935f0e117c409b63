package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/llm"
)

// maxResponseBytes caps how much of a completion body is read into memory.
const maxResponseBytes = 4 << 20

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// complete posts one chat/completions request and returns the first choice's
// content along with the raw body. Every failure is an AIExtractionError.
func (c *Client) complete(ctx context.Context, rid string, body chatRequest) (string, []byte, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return "", nil, &common.AIExtractionError{Reason: "encode request", Err: err}
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return "", nil, &common.AIExtractionError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	c.log.Debug("llm.http.request", "req_id", rid, "url", endpoint, "content_length", len(bs))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("llm.http.send_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", nil, &common.AIExtractionError{Reason: "request failed", Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn("llm.http.body_close_error", "req_id", rid, "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", nil, &common.AIExtractionError{Reason: "read response", Err: err}
	}
	c.log.Info("llm.http.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	var cc chatResponse
	decodeErr := json.Unmarshal(raw, &cc)
	if resp.StatusCode/100 != 2 {
		msg := llm.Truncate(strings.TrimSpace(string(raw)), 512)
		if decodeErr == nil && cc.Error != nil && cc.Error.Message != "" {
			msg = cc.Error.Message
		}
		return "", raw, &common.AIExtractionError{Reason: fmt.Sprintf("upstream status %d: %s", resp.StatusCode, msg)}
	}
	if decodeErr != nil {
		return "", raw, &common.AIExtractionError{Reason: "decode completion", Err: decodeErr}
	}
	if len(cc.Choices) == 0 {
		return "", raw, &common.AIExtractionError{Reason: "no choices in completion"}
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), raw, nil
}
