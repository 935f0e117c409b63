package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
	"github.com/joseph-ayodele/hr-ingest/internal/repository"
)

// TimedOutMessage is stored on jobs failed by ReapStale.
const TimedOutMessage = "processing timed out"

// NewUpload describes an artifact that has already been stored. A nil ID
// gets a fresh one.
type NewUpload struct {
	ID            uuid.UUID
	FileName      string
	FileKey       string
	MimeType      string
	FileSizeBytes int64
	UploadedBy    string
}

func (u NewUpload) id() uuid.UUID {
	if u.ID == uuid.Nil {
		return uuid.New()
	}
	return u.ID
}

// Ledger owns every status change of an import job.
type Ledger struct {
	repo repository.ImportJobRepository
	log  *slog.Logger
	now  func() time.Time
}

type Option func(*Ledger)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(repo repository.ImportJobRepository, logger *slog.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{repo: repo, log: logger, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Create records a freshly uploaded artifact.
func (l *Ledger) Create(ctx context.Context, u NewUpload) (*entity.ImportJob, error) {
	job := &entity.ImportJob{
		ID:            u.id(),
		FileName:      u.FileName,
		FileKey:       u.FileKey,
		MimeType:      u.MimeType,
		FileSizeBytes: u.FileSizeBytes,
		UploadedBy:    u.UploadedBy,
		Status:        constants.JobStatusUploaded,
		CreatedAt:     l.now(),
	}
	if err := l.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}
	l.log.Info("ledger.job.created", "job_id", job.ID, "file_name", job.FileName, "uploaded_by", job.UploadedBy)
	return job, nil
}

// RecordRejected records an artifact that never reached the object store. The
// job walks the normal uploaded -> processing -> failed path so the attempt
// stays auditable.
func (l *Ledger) RecordRejected(ctx context.Context, u NewUpload, cause error) (*entity.ImportJob, error) {
	job, err := l.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("record rejected upload: %w", err)
	}
	if err := l.Start(ctx, job); err != nil {
		return job, fmt.Errorf("record rejected upload: %w", err)
	}
	if err := l.Fail(ctx, job, cause); err != nil {
		return job, fmt.Errorf("record rejected upload: %w", err)
	}
	l.log.Warn("ledger.job.rejected", "job_id", job.ID, "file_name", job.FileName, "err", cause)
	return job, nil
}

// Start moves an uploaded job to processing. Call before any parse I/O.
func (l *Ledger) Start(ctx context.Context, job *entity.ImportJob) error {
	return l.apply(ctx, job, EventStart, nil)
}

// Succeed stores the parsed employees and closes the job.
func (l *Ledger) Succeed(ctx context.Context, job *entity.ImportJob, employees []entity.EmployeeRecordDraft, format string) error {
	if employees == nil {
		employees = []entity.EmployeeRecordDraft{}
	}
	return l.apply(ctx, job, EventSucceed, &entity.ResultPayload{
		Employees: employees,
		Total:     len(employees),
		Format:    format,
	})
}

// Fail stores cause and closes the job.
func (l *Ledger) Fail(ctx context.Context, job *entity.ImportJob, cause error) error {
	return l.apply(ctx, job, EventFail, &entity.ResultPayload{Error: errorText(cause)})
}

func (l *Ledger) apply(ctx context.Context, job *entity.ImportJob, ev Event, payload *entity.ResultPayload) error {
	next, err := Transition(job.Status, ev)
	if err != nil {
		l.log.Error("ledger.transition.illegal", "job_id", job.ID, "status", job.Status, "event", ev)
		return err
	}
	u := repository.StatusUpdate{From: job.Status, To: next, Payload: payload}
	if next.IsTerminal() {
		ts := l.now()
		u.ProcessedAt = &ts
	}
	if err := l.repo.UpdateStatus(ctx, job.ID, u); err != nil {
		return fmt.Errorf("%s import job %s: %w", ev, job.ID, err)
	}
	job.Status = next
	if payload != nil {
		job.ResultPayload = payload
	}
	if u.ProcessedAt != nil {
		job.ProcessedAt = u.ProcessedAt
	}
	l.log.Info("ledger.job.transition", "job_id", job.ID, "event", ev, "status", next)
	return nil
}

func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error) {
	return l.repo.Get(ctx, id)
}

func (l *Ledger) List(ctx context.Context, f repository.JobFilter) ([]*entity.ImportJob, error) {
	return l.repo.List(ctx, f)
}

// ReapStale fails jobs that have been processing for longer than olderThan.
// Jobs that finish concurrently are skipped.
func (l *Ledger) ReapStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := l.now().Add(-olderThan)
	stale, err := l.repo.ListStale(ctx, constants.JobStatusProcessing, cutoff, 0)
	if err != nil {
		return 0, fmt.Errorf("list stale jobs: %w", err)
	}
	reaped := 0
	for _, job := range stale {
		if err := l.Fail(ctx, job, errors.New(TimedOutMessage)); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				l.log.Debug("ledger.reap.skipped", "job_id", job.ID)
				continue
			}
			return reaped, err
		}
		reaped++
	}
	if reaped > 0 {
		l.log.Warn("ledger.reap.done", "reaped", reaped, "cutoff", cutoff)
	}
	return reaped, nil
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
