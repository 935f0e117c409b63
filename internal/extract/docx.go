package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

const maxDocumentXML = 32 << 20

// DOCXExtractor reads paragraph and table text from word/document.xml.
type DOCXExtractor struct {
	logger *slog.Logger
}

func NewDOCXExtractor(logger *slog.Logger) *DOCXExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DOCXExtractor{logger: logger}
}

func (d *DOCXExtractor) Extract(_ context.Context, data []byte) TextResult {
	start := time.Now()
	text, err := docxText(data)
	if err != nil {
		d.logger.Warn("extract.docx.read_failed", "error", err)
		return TextResult{Method: "docx", Duration: time.Since(start), Warnings: []string{err.Error()}}
	}
	return TextResult{Text: text, Pages: 1, Method: "docx", Duration: time.Since(start)}
}

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()
		return documentXMLText(io.LimitReader(rc, maxDocumentXML))
	}
	return "", errors.New("word/document.xml not found")
}

// documentXMLText streams WordprocessingML tokens: text runs are kept,
// paragraphs end lines, and table cells are separated by tabs so rows read
// like tab-separated records.
func documentXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	var line strings.Builder
	inText := false
	tableDepth := 0

	flush := func() {
		s := strings.TrimRight(line.String(), " \t")
		if s != "" {
			b.WriteString(s)
			b.WriteByte('\n')
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				if tableDepth == 0 {
					flush()
				} else {
					line.WriteByte(' ')
				}
			case "tbl":
				tableDepth++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth == 0 {
					flush()
				} else {
					line.WriteByte(' ')
				}
			case "tc":
				s := strings.TrimRight(line.String(), " ")
				line.Reset()
				line.WriteString(s)
				line.WriteByte('\t')
			case "tr":
				flush()
			case "tbl":
				tableDepth--
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	flush()
	return strings.TrimSpace(b.String()), nil
}
