// Package export renders the parsed employees of an import job as an XLSX
// review sheet.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
)

const sheet = "Employees"

// JobSource loads an import job. *ledger.Ledger implements it.
type JobSource interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error)
}

// ErrNotParsed is returned for jobs that have no employees to export.
var ErrNotParsed = errors.New("import job is not parsed")

var headers = []string{
	"Row",
	"Emp Code",
	"First Name",
	"Last Name",
	"Email",
	"Phone",
	"Department",
	"Designation",
	"Location",
	"Date of Joining",
	"Status",
	"Monthly CTC",
	"Valid",
	"Errors",
}

// Service produces XLSX bytes for a job's review.
type Service struct {
	jobs   JobSource
	logger *slog.Logger
}

func NewService(jobs JobSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, logger: logger}
}

// ExportJobXLSX returns a workbook with one row per parsed employee.
func (s *Service) ExportJobXLSX(ctx context.Context, jobID uuid.UUID) ([]byte, error) {
	start := time.Now()
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != constants.JobStatusParsed || job.ResultPayload == nil {
		return nil, common.NewAppError("NOT_PARSED", fmt.Sprintf("job %s is %s", jobID, job.Status),
			fmt.Errorf("%w: %w", ErrNotParsed, common.ErrInvalidInput))
	}

	b, err := WriteXLSX(job.ResultPayload.Employees)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"job_id", jobID.String(),
		"rows", len(job.ResultPayload.Employees),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// WriteXLSX renders drafts into a single-sheet workbook.
func WriteXLSX(drafts []entity.EmployeeRecordDraft) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// NewFile starts with "Sheet1"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		end, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", end, style)
	}

	for i, d := range drafts {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, d.Row)
		write(2, d.EmpCode)
		write(3, d.FirstName)
		write(4, d.LastName)
		write(5, d.Email)
		write(6, d.Phone)
		write(7, d.Department)
		write(8, d.Designation)
		write(9, d.Location)
		write(10, d.DOJ)
		write(11, d.Status)
		if d.MonthlyCTC != nil {
			write(12, *d.MonthlyCTC)
		}
		write(13, d.IsValid)
		write(14, strings.Join(d.ValidationErrors, "; "))
	}

	_ = f.SetColWidth(sheet, "A", "A", 6)
	_ = f.SetColWidth(sheet, "B", "D", 16)
	_ = f.SetColWidth(sheet, "E", "E", 28)
	_ = f.SetColWidth(sheet, "F", "K", 18)
	_ = f.SetColWidth(sheet, "L", "M", 12)
	_ = f.SetColWidth(sheet, "N", "N", 48)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
