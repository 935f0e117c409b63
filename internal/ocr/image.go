package ocr

import (
	"bytes"
	"context"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

// ImageOCR preprocesses the image and runs tesseract on it. Formats the
// decoder does not know (e.g. webp) are passed to tesseract untouched.
func (e *Extractor) ImageOCR(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()
	var warns []string

	input, name := data, "input.img"
	if prepared, err := e.preprocess(data); err != nil {
		warns = append(warns, "preprocess skipped: "+err.Error())
	} else {
		input, name = prepared, "input.png"
	}

	dir, _, cleanup, err := e.stage(input, name)
	if err != nil {
		return Result{Method: "image-ocr", Warnings: warns}, err
	}
	defer cleanup()

	txt, w, err := e.tesseract(ctx, filepath.Join(dir, name))
	warns = append(warns, w...)
	if err != nil {
		return Result{Method: "image-ocr", Warnings: warns}, err
	}
	return Result{
		Text:     Normalize(txt),
		Pages:    1,
		Method:   "image-ocr",
		Duration: time.Since(start),
		Warnings: warns,
	}, nil
}

// preprocess fits the image inside MaxImageDim, converts it to grayscale and
// boosts contrast and edges, then re-encodes as PNG.
func (e *Extractor) preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() > e.cfg.MaxImageDim || b.Dy() > e.cfg.MaxImageDim {
		img = imaging.Fit(img, e.cfg.MaxImageDim, e.cfg.MaxImageDim, imaging.Lanczos)
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 25)
	gray = imaging.Sharpen(gray, 1.5)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
