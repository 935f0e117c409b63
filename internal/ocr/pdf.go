package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// PDFText reads the PDF text layer with pdftotext -layout.
func (e *Extractor) PDFText(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()
	_, path, cleanup, err := e.stage(data, "input.pdf")
	if err != nil {
		return Result{Method: "pdf-text"}, err
	}
	defer cleanup()

	out, errb, err := e.run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{Method: "pdf-text", Warnings: nonEmpty(string(errb))}, err
	}
	text := string(out)
	// pdftotext separates pages with a form feed
	return Result{
		Text:     Normalize(text),
		Pages:    1 + strings.Count(strings.TrimRight(text, "\f"), "\f"),
		Method:   "pdf-text",
		Duration: time.Since(start),
	}, nil
}

// PDFOCR rasterizes pages with pdftoppm and runs tesseract on each one.
// Pages that fail OCR are skipped with a warning.
func (e *Extractor) PDFOCR(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()
	dir, path, cleanup, err := e.stage(data, "input.pdf")
	if err != nil {
		return Result{Method: "pdf-ocr"}, err
	}
	defer cleanup()

	prefix := filepath.Join(dir, "page")
	args := []string{"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := e.run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return Result{Method: "pdf-ocr", Warnings: nonEmpty(string(errb))}, err
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return Result{Method: "pdf-ocr", Warnings: []string{"pdftoppm produced no images"}}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseract(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}
	return Result{
		Text:     Normalize(b.String()),
		Pages:    len(matches),
		Method:   "pdf-ocr",
		Duration: time.Since(start),
		Warnings: warns,
	}, nil
}

func (e *Extractor) tesseract(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", nonEmpty(string(errb)), err
	}
	return string(out), nil, nil
}

func nonEmpty(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return []string{s}
}
