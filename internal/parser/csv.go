// Package parser reads tabular employee data into raw candidate records.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
)

// ErrNoHeader is returned when the input holds no non-blank line.
var ErrNoHeader = errors.New("no header row found")

// sourceRow is one tabular row plus its 1-based position in the source.
type sourceRow struct {
	line  int
	cells []string
}

// ParseCSV decodes data, treats the first non-blank line as the header and
// returns every data row that resolves a first name or an email. Other rows
// are dropped without error.
func ParseCSV(data []byte) ([]entity.RawRecord, error) {
	decoded, _, err := DetectAndDecode(data)
	if err != nil {
		return nil, &common.ParseError{Format: string(constants.FormatCSV), Err: err}
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []sourceRow
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				// unreadable row; the rest of the file is still usable
				continue
			}
			return nil, &common.ParseError{Format: string(constants.FormatCSV), Err: err}
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, sourceRow{line: line, cells: cells})
	}

	recs, err := rowsToRecords(rows)
	if err != nil {
		return nil, &common.ParseError{Format: string(constants.FormatCSV), Err: err}
	}
	return recs, nil
}

// RowsToRecords applies the same header mapping and candidate rule to rows
// that were already split into cells, such as a spreadsheet sheet.
func RowsToRecords(rows [][]string) ([]entity.RawRecord, error) {
	src := make([]sourceRow, len(rows))
	for i, r := range rows {
		src[i] = sourceRow{line: i + 1, cells: r}
	}
	return rowsToRecords(src)
}

func rowsToRecords(rows []sourceRow) ([]entity.RawRecord, error) {
	start := -1
	for i, r := range rows {
		if !blank(r.cells) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	columns := MapHeaders(rows[start].cells)
	records := make([]entity.RawRecord, 0, len(rows)-start-1)
	for _, r := range rows[start+1:] {
		if blank(r.cells) {
			continue
		}
		rec := entity.RawRecord{Row: r.line}
		for i, cell := range r.cells {
			if field, ok := columns[i]; ok {
				rec.Set(field, cell)
			}
		}
		if strings.TrimSpace(rec.FirstName) == "" && strings.TrimSpace(rec.Email) == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
