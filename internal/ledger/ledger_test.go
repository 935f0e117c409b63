package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
	"github.com/joseph-ayodele/hr-ingest/internal/repository"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from    constants.JobStatus
		ev      Event
		want    constants.JobStatus
		illegal bool
	}{
		{constants.JobStatusUploaded, EventStart, constants.JobStatusProcessing, false},
		{constants.JobStatusProcessing, EventSucceed, constants.JobStatusParsed, false},
		{constants.JobStatusProcessing, EventFail, constants.JobStatusFailed, false},
		{constants.JobStatusUploaded, EventSucceed, constants.JobStatusUploaded, true},
		{constants.JobStatusUploaded, EventFail, constants.JobStatusUploaded, true},
		{constants.JobStatusProcessing, EventStart, constants.JobStatusProcessing, true},
		{constants.JobStatusParsed, EventFail, constants.JobStatusParsed, true},
		{constants.JobStatusFailed, EventStart, constants.JobStatusFailed, true},
		{constants.JobStatusFailed, EventSucceed, constants.JobStatusFailed, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.ev), func(t *testing.T) {
			got, err := Transition(tt.from, tt.ev)
			if tt.illegal {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func newLedger(t *testing.T, opts ...Option) (*Ledger, repository.ImportJobRepository) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.OpenSQLite(ctx, "file:"+uuid.NewString()+"?mode=memory", logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	repo := repository.NewImportJobRepository(db, logger)
	return New(repo, logger, opts...), repo
}

var upload = NewUpload{
	FileName:      "staff.csv",
	FileKey:       "imports/u1/id-staff.csv",
	MimeType:      "text/csv",
	FileSizeBytes: 10,
	UploadedBy:    "u1",
}

func TestLedger_SuccessPath(t *testing.T) {
	ctx := context.Background()
	l, repo := newLedger(t)

	job, err := l.Create(ctx, upload)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusUploaded, job.Status)

	require.NoError(t, l.Start(ctx, job))
	assert.Equal(t, constants.JobStatusProcessing, job.Status)

	require.NoError(t, l.Succeed(ctx, job, nil, "csv"))
	assert.Equal(t, constants.JobStatusParsed, job.Status)
	require.NotNil(t, job.ProcessedAt)

	stored, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusParsed, stored.Status)
	require.NotNil(t, stored.ResultPayload)
	assert.Equal(t, 0, stored.ResultPayload.Total)
	assert.NotNil(t, stored.ResultPayload.Employees, "zero employees are stored as []")
	assert.Empty(t, stored.ResultPayload.Employees)
	assert.Empty(t, stored.ResultPayload.Error)

	// terminal jobs cannot be reopened
	err = l.Fail(ctx, job, errors.New("late"))
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestLedger_FailPath(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	job, err := l.Create(ctx, upload)
	require.NoError(t, err)

	// cannot finish a job that never started
	assert.ErrorIs(t, l.Succeed(ctx, job, nil, "csv"), ErrIllegalTransition)

	require.NoError(t, l.Start(ctx, job))
	require.NoError(t, l.Fail(ctx, job, errors.New("parse csv: no header")))

	stored, err := l.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, stored.Status)
	assert.Equal(t, "parse csv: no header", stored.ResultPayload.Error)
}

func TestLedger_StaleCopyLosesRace(t *testing.T) {
	ctx := context.Background()
	l, repo := newLedger(t)

	job, err := l.Create(ctx, upload)
	require.NoError(t, err)
	require.NoError(t, l.Start(ctx, job))

	copyOfJob := *job
	require.NoError(t, l.Succeed(ctx, job, []entity.EmployeeRecordDraft{{FirstName: "A", IsValid: true}}, "csv"))

	// the copy still believes the job is processing
	err = l.Fail(ctx, &copyOfJob, errors.New("boom"))
	assert.ErrorIs(t, err, repository.ErrConflict)

	stored, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusParsed, stored.Status)
	assert.Equal(t, 1, stored.ResultPayload.Total)
}

type recordingRepo struct {
	repository.ImportJobRepository
	created []constants.JobStatus
	updates []repository.StatusUpdate
}

func (r *recordingRepo) Create(ctx context.Context, job *entity.ImportJob) error {
	r.created = append(r.created, job.Status)
	return r.ImportJobRepository.Create(ctx, job)
}

func (r *recordingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, u repository.StatusUpdate) error {
	r.updates = append(r.updates, u)
	return r.ImportJobRepository.UpdateStatus(ctx, id, u)
}

func TestLedger_RecordRejected(t *testing.T) {
	ctx := context.Background()
	base, repo := newLedger(t)
	rec := &recordingRepo{ImportJobRepository: repo}
	l := New(rec, base.log)

	job, err := l.RecordRejected(ctx, upload, errors.New("upload failed: 403 Forbidden"))
	require.NoError(t, err)

	stored, err := l.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, stored.Status)
	assert.Equal(t, "upload failed: 403 Forbidden", stored.ResultPayload.Error)
	assert.NotNil(t, stored.ProcessedAt)

	// every row goes through the state machine, never inserted as failed
	assert.Equal(t, []constants.JobStatus{constants.JobStatusUploaded}, rec.created)
	require.Len(t, rec.updates, 2)
	assert.Equal(t, constants.JobStatusUploaded, rec.updates[0].From)
	assert.Equal(t, constants.JobStatusProcessing, rec.updates[0].To)
	assert.Equal(t, constants.JobStatusProcessing, rec.updates[1].From)
	assert.Equal(t, constants.JobStatusFailed, rec.updates[1].To)
}

func TestLedger_ReapStale(t *testing.T) {
	ctx := context.Background()
	clock := time.Now().Add(-time.Hour)
	l, _ := newLedger(t, WithClock(func() time.Time { return clock }))

	old, err := l.Create(ctx, upload)
	require.NoError(t, err)
	require.NoError(t, l.Start(ctx, old))

	idle, err := l.Create(ctx, upload)
	require.NoError(t, err)

	clock = clock.Add(50 * time.Minute)
	fresh, err := l.Create(ctx, upload)
	require.NoError(t, err)
	require.NoError(t, l.Start(ctx, fresh))

	clock = clock.Add(10 * time.Minute)
	n, err := l.ReapStale(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := l.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Equal(t, TimedOutMessage, got.ResultPayload.Error)

	got, err = l.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusProcessing, got.Status)

	got, err = l.Get(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusUploaded, got.Status)

	jobs, err := l.List(ctx, repository.JobFilter{UploadedBy: "u1"})
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
}
