// Package objectstore uploads original import artifacts to S3-compatible
// storage with a hand-signed PUT.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/sigv4"
)

const maxErrorBody = 4 << 10

// Putter stores one object. The pipeline depends on this, not on Uploader.
type Putter interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// Uploader performs single-shot signed PUTs. It never retries.
type Uploader struct {
	cfg    common.ObjectStoreConfig
	client *http.Client
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Uploader)

// WithHTTPClient replaces the default client, e.g. with a fake transport.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Uploader) { u.client = c }
}

// WithClock freezes or shifts the signing time.
func WithClock(now func() time.Time) Option {
	return func(u *Uploader) { u.now = now }
}

func NewUploader(cfg common.ObjectStoreConfig, logger *slog.Logger, opts ...Option) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	u := &Uploader{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
		logger: logger,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// URL is the virtual-hosted-style object URL for key.
func (u *Uploader) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
}

// Put uploads body under key. Any transport error or non-2xx response comes
// back as *common.UploadError.
func (u *Uploader) Put(ctx context.Context, key, contentType string, body []byte) error {
	sc := sigv4.NewContext(u.cfg.AccessKey, u.cfg.SecretKey, u.cfg.Region, u.cfg.Bucket, key, u.now())

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.URL(key), bytes.NewReader(body))
	if err != nil {
		return &common.UploadError{Err: fmt.Errorf("build request: %w", err)}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Authorization", sigv4.AuthorizationHeader(sc))
	req.Header.Set("X-Amz-Date", sc.DateString)
	req.Header.Set("X-Amz-Content-Sha256", sigv4.UnsignedPayload)
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := u.client.Do(req)
	if err != nil {
		u.logger.Error("objectstore.put.transport_error", "key", key, "error", err)
		return &common.UploadError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		u.logger.Error("objectstore.put.rejected",
			"key", key,
			"status", resp.StatusCode,
			"body", strings.TrimSpace(string(b)),
		)
		return &common.UploadError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	u.logger.Info("objectstore.put.ok",
		"key", key,
		"bytes", len(body),
		"status", resp.StatusCode,
		"ms", time.Since(start).Milliseconds(),
	)
	return nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeSegment reduces s to unreserved URI characters so it can sit in a
// canonical path without escaping.
func SafeSegment(s string) string {
	s = unsafeKeyChars.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(s, "-.")
	if s == "" {
		return "file"
	}
	return s
}

// ObjectKey builds "{prefix}/{user}/{id}-{fileName}" from sanitized parts.
func ObjectKey(prefix, uploadedBy, fileName string, id uuid.UUID) string {
	name := SafeSegment(path.Base(strings.ReplaceAll(fileName, `\`, "/")))
	parts := []string{}
	if p := strings.Trim(prefix, "/"); p != "" {
		for _, seg := range strings.Split(p, "/") {
			parts = append(parts, SafeSegment(seg))
		}
	}
	parts = append(parts, SafeSegment(uploadedBy), id.String()+"-"+name)
	return strings.Join(parts, "/")
}
