package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
	"github.com/joseph-ayodele/hr-ingest/internal/normalize"
	"github.com/joseph-ayodele/hr-ingest/internal/parser"
	"github.com/joseph-ayodele/hr-ingest/internal/repository"
)

// MsgDuplicateInFile flags the second and later rows sharing an emp_code or email.
const MsgDuplicateInFile = "Duplicate employee in file"

type RowAction string

const (
	ActionCreate  RowAction = "create"
	ActionUpdate  RowAction = "update"
	ActionInvalid RowAction = "invalid"
)

type PreviewRow struct {
	Row        int                        `json:"row"`
	Action     RowAction                  `json:"action"`
	ExistingID *uuid.UUID                 `json:"existingId,omitempty"`
	Draft      entity.EmployeeRecordDraft `json:"draft"`
}

type PreviewResult struct {
	Total   int          `json:"total"`
	Create  int          `json:"create"`
	Update  int          `json:"update"`
	Invalid int          `json:"invalid"`
	Rows    []PreviewRow `json:"rows"`
}

type CommitOptions struct {
	DryRun       bool
	AllowInvalid bool
}

type CommitResult struct {
	Total   int  `json:"total"`
	Created int  `json:"created"`
	Updated int  `json:"updated"`
	Skipped int  `json:"skipped"`
	DryRun  bool `json:"dryRun"`
}

// Bulk is the two-phase CSV import: Preview never writes, Commit re-parses
// the same input and writes in one transaction.
type Bulk struct {
	Logger    *slog.Logger
	Employees repository.EmployeeRepository
}

func NewBulk(logger *slog.Logger, employees repository.EmployeeRepository) *Bulk {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bulk{Logger: logger, Employees: employees}
}

// Preview parses csv strictly and classifies each row against existing employees.
func (b *Bulk) Preview(ctx context.Context, csv []byte) (*PreviewResult, error) {
	raws, err := parser.ParseCSV(csv)
	if err != nil {
		return nil, err
	}
	return b.classify(ctx, raws)
}

// PreviewRows is Preview for input already split into cells, e.g. a spreadsheet.
func (b *Bulk) PreviewRows(ctx context.Context, rows [][]string) (*PreviewResult, error) {
	raws, err := parser.RowsToRecords(rows)
	if err != nil {
		return nil, &common.ParseError{Format: string(constants.FormatExcel), Err: err}
	}
	return b.classify(ctx, raws)
}

// Commit validates csv from scratch. Invalid rows block the write unless
// AllowInvalid is set, in which case they are skipped.
func (b *Bulk) Commit(ctx context.Context, csv []byte, opts CommitOptions) (*CommitResult, error) {
	preview, err := b.Preview(ctx, csv)
	if err != nil {
		return nil, err
	}
	return b.commit(ctx, preview, opts)
}

// CommitRows is Commit for pre-split rows.
func (b *Bulk) CommitRows(ctx context.Context, rows [][]string, opts CommitOptions) (*CommitResult, error) {
	preview, err := b.PreviewRows(ctx, rows)
	if err != nil {
		return nil, err
	}
	return b.commit(ctx, preview, opts)
}

func (b *Bulk) commit(ctx context.Context, preview *PreviewResult, opts CommitOptions) (*CommitResult, error) {
	if preview.Invalid > 0 && !opts.AllowInvalid {
		b.Logger.Warn("bulk.commit.blocked", "invalid", preview.Invalid, "total", preview.Total)
		return nil, &common.CommitBlockedError{Invalid: preview.Invalid}
	}

	res := &CommitResult{Total: preview.Total, Skipped: preview.Invalid, DryRun: opts.DryRun}
	writes := make([]repository.EmployeeWrite, 0, preview.Create+preview.Update)
	for _, r := range preview.Rows {
		switch r.Action {
		case ActionCreate:
			writes = append(writes, repository.EmployeeWrite{Draft: r.Draft})
			res.Created++
		case ActionUpdate:
			writes = append(writes, repository.EmployeeWrite{ID: *r.ExistingID, Draft: r.Draft})
			res.Updated++
		}
	}

	if opts.DryRun {
		b.Logger.Info("bulk.commit.dry_run", "create", res.Created, "update", res.Updated, "skipped", res.Skipped)
		return res, nil
	}

	applied, err := b.Employees.ApplyBatch(ctx, writes)
	if err != nil {
		b.Logger.Error("bulk.commit.failed", "err", err)
		return nil, err
	}
	res.Created, res.Updated = applied.Created, applied.Updated
	b.Logger.Info("bulk.commit.ok", "created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}

func (b *Bulk) classify(ctx context.Context, raws []entity.RawRecord) (*PreviewResult, error) {
	drafts := normalize.All(raws, normalize.Options{Strict: true})

	var codes, emails []string
	for _, d := range drafts {
		if d.EmpCode != "" {
			codes = append(codes, d.EmpCode)
		}
		if d.Email != "" {
			emails = append(emails, d.Email)
		}
	}
	existing, err := b.Employees.FindByCodesOrEmails(ctx, codes, emails)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]uuid.UUID, len(existing))
	byEmail := make(map[string]uuid.UUID, len(existing))
	for _, e := range existing {
		if e.EmpCode != nil {
			byCode[*e.EmpCode] = e.ID
		}
		if e.Email != nil {
			byEmail[strings.ToLower(*e.Email)] = e.ID
		}
	}

	res := &PreviewResult{Total: len(drafts), Rows: make([]PreviewRow, 0, len(drafts))}
	seen := make(map[string]struct{}, len(drafts))
	for _, d := range drafts {
		dup := false
		for _, k := range identityKeys(d) {
			if _, ok := seen[k]; ok {
				dup = true
			}
			seen[k] = struct{}{}
		}
		if dup {
			d.ValidationErrors = append(d.ValidationErrors, MsgDuplicateInFile)
			d.IsValid = false
			d.ShouldSave = false
		}

		row := PreviewRow{Row: d.Row, Draft: d}
		switch {
		case !d.IsValid:
			row.Action = ActionInvalid
			res.Invalid++
		default:
			if id, ok := lookup(d, byCode, byEmail); ok {
				row.Action = ActionUpdate
				row.ExistingID = &id
				res.Update++
			} else {
				row.Action = ActionCreate
				res.Create++
			}
		}
		res.Rows = append(res.Rows, row)
	}
	b.Logger.Info("bulk.preview.ok", "total", res.Total, "create", res.Create, "update", res.Update, "invalid", res.Invalid)
	return res, nil
}

func lookup(d entity.EmployeeRecordDraft, byCode, byEmail map[string]uuid.UUID) (uuid.UUID, bool) {
	if d.EmpCode != "" {
		if id, ok := byCode[d.EmpCode]; ok {
			return id, true
		}
	}
	if d.Email != "" {
		if id, ok := byEmail[strings.ToLower(d.Email)]; ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

// identityKeys are the unique columns a row would occupy once written.
func identityKeys(d entity.EmployeeRecordDraft) []string {
	var keys []string
	if d.EmpCode != "" {
		keys = append(keys, entity.FieldEmpCode+":"+d.EmpCode)
	}
	if d.Email != "" {
		keys = append(keys, entity.FieldEmail+":"+strings.ToLower(d.Email))
	}
	return keys
}
