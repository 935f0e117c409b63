package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxLegacyCells = 100000

// SpreadsheetExtractor renders every sheet as tab-separated lines.
type SpreadsheetExtractor struct {
	legacy bool
	logger *slog.Logger
}

// NewSpreadsheetExtractor reads .xlsx, or legacy .xls when legacy is set.
func NewSpreadsheetExtractor(legacy bool, logger *slog.Logger) *SpreadsheetExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpreadsheetExtractor{legacy: legacy, logger: logger}
}

func (s *SpreadsheetExtractor) Extract(_ context.Context, data []byte) TextResult {
	start := time.Now()
	method := "xlsx"
	if s.legacy {
		method = "xls"
	}
	sheets, err := ReadSheets(data, s.legacy)
	if err != nil {
		s.logger.Warn("extract.spreadsheet.read_failed", "method", method, "error", err)
		return TextResult{Method: method, Duration: time.Since(start), Warnings: []string{err.Error()}}
	}

	var b strings.Builder
	for _, sh := range sheets {
		if len(sheets) > 1 {
			fmt.Fprintf(&b, "Sheet: %s\n", sh.Name)
		}
		for _, row := range sh.Rows {
			line := strings.TrimRight(strings.Join(row, "\t"), "\t ")
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return TextResult{
		Text:     strings.TrimSpace(b.String()),
		Pages:    len(sheets),
		Method:   method,
		Duration: time.Since(start),
	}
}

// Sheet is one worksheet's cell grid.
type Sheet struct {
	Name string
	Rows [][]string
}

// ReadSheets loads every worksheet of an .xlsx (or legacy .xls) workbook.
func ReadSheets(data []byte, legacy bool) (sheets []Sheet, err error) {
	if legacy {
		// the xls reader panics on some malformed inputs
		defer func() {
			if r := recover(); r != nil {
				sheets, err = nil, fmt.Errorf("read xls: %v", r)
			}
		}()
		wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, fmt.Errorf("open xls: %w", err)
		}
		if wb.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		name := "Sheet1"
		if sh := wb.GetSheet(0); sh != nil && sh.Name != "" {
			name = sh.Name
		}
		return []Sheet{{Name: name, Rows: wb.ReadAllCells(maxLegacyCells)}}, nil
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		out = append(out, Sheet{Name: name, Rows: rows})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	return out, nil
}

// FirstSheetRows returns the rows of the first non-empty worksheet, for
// callers that want tabular input rather than text.
func FirstSheetRows(data []byte, legacy bool) ([][]string, error) {
	sheets, err := ReadSheets(data, legacy)
	if err != nil {
		return nil, err
	}
	for _, sh := range sheets {
		if len(sh.Rows) > 0 {
			return sh.Rows, nil
		}
	}
	return nil, fmt.Errorf("worksheet is empty")
}
