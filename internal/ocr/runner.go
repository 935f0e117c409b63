package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Runner executes one poppler or tesseract invocation. Tests swap in a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ToolError is a failed external command, classified so callers can tell a
// missing install from a timeout from a bad input file.
type ToolError struct {
	Tool     string
	Stderr   string
	Missing  bool
	TimedOut bool
	Err      error
}

func (e *ToolError) Error() string {
	switch {
	case e.Missing:
		return e.Tool + ": not installed"
	case e.TimedOut:
		return e.Tool + ": timed out"
	case e.Stderr != "":
		return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, firstLine(e.Stderr))
	}
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// run bounds the command by CommandTimeout and turns failures into *ToolError.
func (e *Extractor) run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CommandTimeout)
	defer cancel()

	tool := filepath.Base(name)
	start := time.Now()
	out, errb, err := e.runner.Run(ctx, name, args...)
	if err == nil {
		e.logger.Debug("ocr.exec.ok",
			"tool", tool,
			"duration_ms", time.Since(start).Milliseconds(),
			"stdout_bytes", len(out),
		)
		return out, errb, nil
	}

	te := &ToolError{
		Tool:     tool,
		Stderr:   clip(strings.TrimSpace(string(errb)), 2<<10),
		Missing:  errors.Is(err, exec.ErrNotFound),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
		Err:      err,
	}
	e.logger.Error("ocr.exec.failed",
		"tool", tool,
		"args", strings.Join(args, " "),
		"duration_ms", time.Since(start).Milliseconds(),
		"missing", te.Missing,
		"timed_out", te.TimedOut,
		"error", err,
		"stderr", te.Stderr,
	)
	return out, errb, te
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
