package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
)

var importJobColumns = []string{
	"id", "file_name", "file_key", "mime_type", "file_size_bytes",
	"uploaded_by", "status", "result_payload", "created_at", "processed_at",
}

// JobFilter narrows List. Zero values mean "any".
type JobFilter struct {
	UploadedBy string
	Status     constants.JobStatus
	Limit      int
	Offset     int
}

// StatusUpdate is a compare-and-set status change.
type StatusUpdate struct {
	From        constants.JobStatus
	To          constants.JobStatus
	Payload     *entity.ResultPayload
	ProcessedAt *time.Time
}

type ImportJobRepository interface {
	Create(ctx context.Context, job *entity.ImportJob) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error)
	List(ctx context.Context, f JobFilter) ([]*entity.ImportJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, u StatusUpdate) error
	ListStale(ctx context.Context, status constants.JobStatus, before time.Time, limit int) ([]*entity.ImportJob, error)
}

type importJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewImportJobRepository(db *DB, log *slog.Logger) ImportJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &importJobRepo{db: db, log: log}
}

func (r *importJobRepo) Create(ctx context.Context, job *entity.ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now()
	}
	payload, err := encodePayload(job.ResultPayload)
	if err != nil {
		return err
	}
	q, args := r.db.builder().Insert(tableImportJobs).
		Columns(importJobColumns...).
		Values(
			job.ID, job.FileName, job.FileKey, job.MimeType, job.FileSizeBytes,
			job.UploadedBy, string(job.Status), payload, dbTime(job.CreatedAt), nullTime(job.ProcessedAt),
		).
		Query()
	if _, err := exec(ctx, r.db.drv, q, args); err != nil {
		r.log.Error("import_job create failed", "file_name", job.FileName, "err", err)
		return err
	}
	r.log.Info("import_job created", "job_id", job.ID, "status", job.Status, "uploaded_by", job.UploadedBy)
	return nil
}

func (r *importJobRepo) Get(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error) {
	q, args := r.db.builder().Select(importJobColumns...).
		From(entsql.Table(tableImportJobs)).
		Where(entsql.EQ("id", id)).
		Query()
	jobs, err := r.queryJobs(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("import job %s: %w", id, common.ErrNotFound)
	}
	return jobs[0], nil
}

func (r *importJobRepo) List(ctx context.Context, f JobFilter) ([]*entity.ImportJob, error) {
	sel := r.db.builder().Select(importJobColumns...).
		From(entsql.Table(tableImportJobs))
	var preds []*entsql.Predicate
	if f.UploadedBy != "" {
		preds = append(preds, entsql.EQ("uploaded_by", f.UploadedBy))
	}
	if f.Status != "" {
		preds = append(preds, entsql.EQ("status", string(f.Status)))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	sel.OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).Limit(limit)
	if f.Offset > 0 {
		sel.Offset(f.Offset)
	}
	q, args := sel.Query()
	return r.queryJobs(ctx, q, args)
}

func (r *importJobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, u StatusUpdate) error {
	upd := r.db.builder().Update(tableImportJobs).
		Set("status", string(u.To))
	if u.Payload != nil {
		payload, err := encodePayload(u.Payload)
		if err != nil {
			return err
		}
		upd.Set("result_payload", payload)
	}
	if u.ProcessedAt != nil {
		upd.Set("processed_at", dbTime(*u.ProcessedAt))
	}
	q, args := upd.Where(entsql.And(
		entsql.EQ("id", id),
		entsql.EQ("status", string(u.From)),
	)).Query()

	n, err := exec(ctx, r.db.drv, q, args)
	if err != nil {
		r.log.Error("import_job status update failed", "job_id", id, "from", u.From, "to", u.To, "err", err)
		return err
	}
	if n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		r.log.Warn("import_job status changed concurrently", "job_id", id, "from", u.From, "to", u.To)
		return fmt.Errorf("import job %s: %s -> %s: %w", id, u.From, u.To, ErrConflict)
	}
	r.log.Info("import_job status updated", "job_id", id, "from", u.From, "to", u.To)
	return nil
}

func (r *importJobRepo) ListStale(ctx context.Context, status constants.JobStatus, before time.Time, limit int) ([]*entity.ImportJob, error) {
	if limit <= 0 {
		limit = 100
	}
	q, args := r.db.builder().Select(importJobColumns...).
		From(entsql.Table(tableImportJobs)).
		Where(entsql.And(
			entsql.EQ("status", string(status)),
			entsql.LT("created_at", dbTime(before)),
		)).
		OrderBy("created_at").
		Limit(limit).
		Query()
	return r.queryJobs(ctx, q, args)
}

func (r *importJobRepo) queryJobs(ctx context.Context, q string, args []any) ([]*entity.ImportJob, error) {
	rows, err := query(ctx, r.db.drv, q, args)
	if err != nil {
		r.log.Error("import_job query failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.ImportJob
	for rows.Next() {
		var (
			job       entity.ImportJob
			status    string
			payload   sql.NullString
			processed sql.NullTime
		)
		if err := rows.Scan(
			&job.ID, &job.FileName, &job.FileKey, &job.MimeType, &job.FileSizeBytes,
			&job.UploadedBy, &status, &payload, &job.CreatedAt, &processed,
		); err != nil {
			return nil, fmt.Errorf("%w: scan import job: %v", common.ErrDatabase, err)
		}
		job.Status = constants.JobStatus(status)
		job.CreatedAt = job.CreatedAt.UTC()
		if processed.Valid {
			t := processed.Time.UTC()
			job.ProcessedAt = &t
		}
		if payload.Valid && payload.String != "" && payload.String != "null" {
			var p entity.ResultPayload
			if err := json.Unmarshal([]byte(payload.String), &p); err != nil {
				return nil, fmt.Errorf("%w: decode result payload of %s: %v", common.ErrDatabase, job.ID, err)
			}
			job.ResultPayload = &p
		}
		out = append(out, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func encodePayload(p *entity.ResultPayload) (any, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode result payload: %w", err)
	}
	return string(b), nil
}

// now is the store's clock: UTC at microsecond precision, which both
// Postgres and the SQLite text encoding round-trip exactly.
func now() time.Time { return dbTime(time.Now()) }

func dbTime(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dbTime(*t)
}
