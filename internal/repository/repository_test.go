package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	db, err := OpenSQLite(ctx, fmt.Sprintf("file:%s?mode=memory", uuid.NewString()), logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestOpen_SQLitePrefix(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, common.DatabaseConfig{DSN: "sqlite:file:" + uuid.NewString() + "?mode=memory"}, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite3", db.Dialect())
	assert.NoError(t, db.HealthCheck(ctx, time.Second))
	require.NoError(t, db.Migrate(ctx))
	// migrating twice is a no-op
	require.NoError(t, db.Migrate(ctx))
}

func TestImportJobRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewImportJobRepository(newTestDB(t), nil)

	job := &entity.ImportJob{
		FileName:      "employees.csv",
		FileKey:       "imports/u1/x-employees.csv",
		MimeType:      "text/csv",
		FileSizeBytes: 42,
		UploadedBy:    "u1",
		Status:        constants.JobStatusUploaded,
	}
	require.NoError(t, repo.Create(ctx, job))
	require.NotEqual(t, uuid.Nil, job.ID)

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.FileName, got.FileName)
	assert.Equal(t, constants.JobStatusUploaded, got.Status)
	assert.Nil(t, got.ResultPayload)
	assert.Nil(t, got.ProcessedAt)
	assert.True(t, job.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, repo.UpdateStatus(ctx, job.ID, StatusUpdate{
		From: constants.JobStatusUploaded,
		To:   constants.JobStatusProcessing,
	}))

	// the job is no longer uploaded, so a second start loses the race
	err = repo.UpdateStatus(ctx, job.ID, StatusUpdate{
		From: constants.JobStatusUploaded,
		To:   constants.JobStatusProcessing,
	})
	assert.ErrorIs(t, err, ErrConflict)

	done := time.Now()
	ctc := 50000.0
	require.NoError(t, repo.UpdateStatus(ctx, job.ID, StatusUpdate{
		From: constants.JobStatusProcessing,
		To:   constants.JobStatusParsed,
		Payload: &entity.ResultPayload{
			Employees: []entity.EmployeeRecordDraft{{FirstName: "Asha", MonthlyCTC: &ctc, IsValid: true, ShouldSave: true}},
			Total:     1,
		},
		ProcessedAt: &done,
	}))

	got, err = repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusParsed, got.Status)
	require.NotNil(t, got.ResultPayload)
	assert.Equal(t, 1, got.ResultPayload.Total)
	require.Len(t, got.ResultPayload.Employees, 1)
	assert.Equal(t, "Asha", got.ResultPayload.Employees[0].FirstName)
	require.NotNil(t, got.ProcessedAt)
	assert.True(t, dbTime(done).Equal(*got.ProcessedAt))
}

func TestImportJobRepository_GetMissing(t *testing.T) {
	repo := NewImportJobRepository(newTestDB(t), nil)
	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = repo.UpdateStatus(context.Background(), uuid.New(), StatusUpdate{
		From: constants.JobStatusUploaded,
		To:   constants.JobStatusProcessing,
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestImportJobRepository_ListAndStale(t *testing.T) {
	ctx := context.Background()
	repo := NewImportJobRepository(newTestDB(t), nil)

	base := time.Now().Add(-time.Hour)
	for i, tc := range []struct {
		user   string
		status constants.JobStatus
	}{
		{"u1", constants.JobStatusProcessing},
		{"u1", constants.JobStatusParsed},
		{"u2", constants.JobStatusProcessing},
	} {
		require.NoError(t, repo.Create(ctx, &entity.ImportJob{
			FileName:   fmt.Sprintf("f%d.csv", i),
			FileKey:    fmt.Sprintf("k%d", i),
			UploadedBy: tc.user,
			Status:     tc.status,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := repo.List(ctx, JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "f2.csv", all[0].FileName, "newest first")

	mine, err := repo.List(ctx, JobFilter{UploadedBy: "u1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	processing, err := repo.List(ctx, JobFilter{Status: constants.JobStatusProcessing, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, processing, 1)

	stale, err := repo.ListStale(ctx, constants.JobStatusProcessing, base.Add(90*time.Second), 0)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "f0.csv", stale[0].FileName)
}

func TestEmployeeRepository_ApplyBatchAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository(newTestDB(t), nil)

	ctc := 90000.0
	res, err := repo.ApplyBatch(ctx, []EmployeeWrite{
		{Draft: entity.EmployeeRecordDraft{Row: 2, EmpCode: "E001", FirstName: "Asha", Email: "Asha@Example.com", Department: "Engineering", MonthlyCTC: &ctc}},
		{Draft: entity.EmployeeRecordDraft{Row: 3, FirstName: "Ravi", Email: "ravi@example.com"}},
	})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Created: 2}, res)

	found, err := repo.FindByCodesOrEmails(ctx, []string{"E001"}, []string{"RAVI@example.com", ""})
	require.NoError(t, err)
	require.Len(t, found, 2)

	byName := map[string]*entity.Employee{}
	for _, e := range found {
		byName[e.FirstName] = e
	}
	require.NotNil(t, byName["Asha"].Email)
	assert.Equal(t, "asha@example.com", *byName["Asha"].Email)
	require.NotNil(t, byName["Asha"].MonthlyCTC)
	assert.Equal(t, 90000.0, *byName["Asha"].MonthlyCTC)
	assert.Nil(t, byName["Ravi"].EmpCode)

	res, err = repo.ApplyBatch(ctx, []EmployeeWrite{
		{ID: byName["Asha"].ID, Draft: entity.EmployeeRecordDraft{Row: 2, EmpCode: "E001", FirstName: "Asha", Designation: "Staff Engineer"}},
	})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Updated: 1}, res)

	list, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	asha := list[0]
	assert.Equal(t, "Asha", asha.FirstName)
	require.NotNil(t, asha.Designation)
	assert.Equal(t, "Staff Engineer", *asha.Designation)
	require.NotNil(t, asha.Department, "empty fields do not clear stored values")
	assert.Equal(t, "Engineering", *asha.Department)
}

func TestEmployeeRepository_ApplyBatchRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository(newTestDB(t), nil)

	_, err := repo.ApplyBatch(ctx, []EmployeeWrite{
		{Draft: entity.EmployeeRecordDraft{Row: 2, EmpCode: "E001", FirstName: "Asha"}},
		{Draft: entity.EmployeeRecordDraft{Row: 3, EmpCode: "E001", FirstName: "Duplicate"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")

	list, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmployeeRepository_FindWithNoKeys(t *testing.T) {
	repo := NewEmployeeRepository(newTestDB(t), nil)
	found, err := repo.FindByCodesOrEmails(context.Background(), nil, []string{" "})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRoleRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRoleRepository(newTestDB(t), nil)

	_, err := repo.RoleForUser(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, repo.SetRole(ctx, "u1", constants.RoleEmployee))
	require.NoError(t, repo.SetRole(ctx, "u1", constants.RoleHR))

	role, err := repo.RoleForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, constants.RoleHR, role)
}
