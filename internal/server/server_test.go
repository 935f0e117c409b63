package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/hr-ingest/constants"
	"github.com/joseph-ayodele/hr-ingest/internal/auth"
	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
	"github.com/joseph-ayodele/hr-ingest/internal/pipeline"
	"github.com/joseph-ayodele/hr-ingest/internal/repository"
)

func init() { gin.SetMode(gin.TestMode) }

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeAuth struct{}

func (fakeAuth) Authorize(_ context.Context, header string) (*auth.Caller, error) {
	switch header {
	case "Bearer hr":
		return &auth.Caller{UserID: "hr-1", Role: constants.RoleHR}, nil
	case "Bearer employee":
		return nil, &common.ForbiddenError{UserID: "emp-1", Role: constants.RoleEmployee}
	default:
		return nil, &common.AuthError{Reason: "invalid token"}
	}
}

type fakeImporter struct {
	got pipeline.Upload
	res *pipeline.Result
	err error
}

func (f *fakeImporter) Process(_ context.Context, up pipeline.Upload) (*pipeline.Result, error) {
	f.got = up
	return f.res, f.err
}

type fakeJobs map[uuid.UUID]*entity.ImportJob

func (f fakeJobs) Get(_ context.Context, id uuid.UUID) (*entity.ImportJob, error) {
	if j, ok := f[id]; ok {
		return j, nil
	}
	return nil, fmt.Errorf("import job %s: %w", id, common.ErrNotFound)
}

func (f fakeJobs) List(_ context.Context, filter repository.JobFilter) ([]*entity.ImportJob, error) {
	var out []*entity.ImportJob
	for _, j := range f {
		if filter.UploadedBy == "" || j.UploadedBy == filter.UploadedBy {
			out = append(out, j)
		}
	}
	return out, nil
}

type fakeBulk struct {
	opts pipeline.CommitOptions
}

func (f *fakeBulk) Preview(_ context.Context, csv []byte) (*pipeline.PreviewResult, error) {
	if len(csv) == 0 {
		return nil, &common.ParseError{Format: "csv", Err: errors.New("no header row found")}
	}
	return &pipeline.PreviewResult{Total: 2, Create: 1, Invalid: 1}, nil
}

func (f *fakeBulk) Commit(_ context.Context, _ []byte, opts pipeline.CommitOptions) (*pipeline.CommitResult, error) {
	f.opts = opts
	if !opts.AllowInvalid {
		return nil, &common.CommitBlockedError{Invalid: 1}
	}
	return &pipeline.CommitResult{Total: 2, Created: 1, Skipped: 1, DryRun: opts.DryRun}, nil
}

type fakeExport struct{}

func (fakeExport) ExportJobXLSX(_ context.Context, _ uuid.UUID) ([]byte, error) {
	return []byte("PK-xlsx"), nil
}

type fakeDB struct{ err error }

func (f fakeDB) HealthCheck(context.Context, time.Duration) error { return f.err }

type fixture struct {
	router   *gin.Engine
	importer *fakeImporter
	bulk     *fakeBulk
	jobs     fakeJobs
}

func newFixture() *fixture {
	f := &fixture{importer: &fakeImporter{}, bulk: &fakeBulk{}, jobs: fakeJobs{}}
	f.router = NewRouter(Deps{
		Importer:       f.importer,
		Jobs:           f.jobs,
		Bulk:           f.bulk,
		Export:         fakeExport{},
		Auth:           fakeAuth{},
		DB:             fakeDB{},
		Logger:         discard,
		MaxUploadBytes: 1 << 10,
	})
	return f
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func importBody(name, mime string, data []byte) map[string]any {
	return map[string]any{
		"fileName": name,
		"fileType": mime,
		"fileSize": len(data),
		"fileData": base64.StdEncoding.EncodeToString(data),
	}
}

func TestCreateImport_OK(t *testing.T) {
	f := newFixture()
	jobID := uuid.New()
	f.importer.res = &pipeline.Result{
		Job:       &entity.ImportJob{ID: jobID},
		Employees: []entity.EmployeeRecordDraft{{FirstName: "Jane", Status: "Active", ValidationErrors: []string{}, IsValid: true, ShouldSave: true}},
	}

	w := f.do(http.MethodPost, "/api/v1/imports", "hr", importBody("staff.csv", "text/csv", []byte("first_name\nJane\n")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	resp := decode[ImportResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, jobID, resp.ImportID)
	require.Len(t, resp.Employees, 1)
	assert.Equal(t, "Jane", resp.Employees[0].FirstName)

	assert.Equal(t, "hr-1", f.importer.got.UploadedBy)
	assert.Equal(t, "staff.csv", f.importer.got.FileName)
	assert.Equal(t, []byte("first_name\nJane\n"), f.importer.got.Data)
}

func TestCreateImport_EmptyEmployeesIsArray(t *testing.T) {
	f := newFixture()
	f.importer.res = &pipeline.Result{Job: &entity.ImportJob{ID: uuid.New()}}

	w := f.do(http.MethodPost, "/api/v1/imports", "hr", importBody("scan.pdf", "application/pdf", []byte("%PDF")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"employees":[]`)
}

func TestCreateImport_Auth(t *testing.T) {
	f := newFixture()
	body := importBody("staff.csv", "text/csv", []byte("x"))

	w := f.do(http.MethodPost, "/api/v1/imports", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode[ErrorResponse](t, w).Code)

	w = f.do(http.MethodPost, "/api/v1/imports", "bogus", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/imports", "employee", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decode[ErrorResponse](t, w).Code)

	assert.Empty(t, f.importer.got.FileName, "pipeline never ran")
}

func TestCreateImport_BadRequests(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/imports", "hr", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/v1/imports", "hr", map[string]any{"fileType": "text/csv"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/v1/imports", "hr", importBody("big.csv", "text/csv", bytes.Repeat([]byte("a"), 1100)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateImport_StageFailures(t *testing.T) {
	for name, err := range map[string]error{
		"unsupported": &common.UnsupportedFormatError{FileName: "a.txt"},
		"parse":       &common.ParseError{Format: "csv", Err: errors.New("no header row found")},
		"ai":          &common.AIExtractionError{Reason: "no JSON array"},
		"upload":      &common.UploadError{StatusCode: 403, Status: "403 Forbidden"},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.importer.err = err
			w := f.do(http.MethodPost, "/api/v1/imports", "hr", importBody("a.txt", "text/plain", []byte("x")))
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, err.Error(), resp.Error)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestGetAndListImports(t *testing.T) {
	f := newFixture()
	job := &entity.ImportJob{ID: uuid.New(), FileName: "a.csv", UploadedBy: "hr-1", Status: constants.JobStatusParsed}
	f.jobs[job.ID] = job
	other := &entity.ImportJob{ID: uuid.New(), FileName: "b.csv", UploadedBy: "hr-2", Status: constants.JobStatusFailed}
	f.jobs[other.ID] = other

	w := f.do(http.MethodGet, "/api/v1/imports/"+job.ID.String(), "hr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a.csv", decode[entity.ImportJob](t, w).FileName)

	w = f.do(http.MethodGet, "/api/v1/imports/"+uuid.NewString(), "hr", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/v1/imports/not-a-uuid", "hr", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/v1/imports?mine=true", "hr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string][]entity.ImportJob](t, w)
	require.Len(t, list["imports"], 1)
	assert.Equal(t, job.ID, list["imports"][0].ID)

	w = f.do(http.MethodGet, "/api/v1/imports?limit=x", "hr", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportImport(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	w := f.do(http.MethodGet, "/api/v1/imports/"+id.String()+"/export.xlsx", "hr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), id.String())
	assert.Equal(t, "PK-xlsx", w.Body.String())
}

func TestValidateEmployee(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/v1/employees/validate", "hr", map[string]any{
		"firstName":  "Jane",
		"email":      "jane@",
		"phone":      "98765 43210",
		"department": "finance",
		"shouldSave": true,
		"isValid":    true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[entity.EmployeeRecordDraft](t, w)
	assert.Equal(t, "jane@", d.Email)
	assert.Equal(t, []string{"Invalid email"}, d.ValidationErrors)
	assert.False(t, d.IsValid)
	assert.False(t, d.ShouldSave)
	assert.Equal(t, "Finance", d.Department)
	assert.Equal(t, "+919876543210", d.Phone)
}

func TestBulkEndpoints(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/v1/employees/bulk/preview", "hr", map[string]any{"csv": "first_name\nA\n"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[pipeline.PreviewResult](t, w).Invalid)

	w = f.do(http.MethodPost, "/api/v1/employees/bulk/preview", "hr", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/v1/employees/bulk/commit", "hr", map[string]any{"csv": "first_name\nA\n"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "commit_blocked", decode[ErrorResponse](t, w).Code)

	w = f.do(http.MethodPost, "/api/v1/employees/bulk/commit", "hr", map[string]any{"csv": "first_name\nA\n", "dryRun": true, "allowInvalid": true})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[pipeline.CommitResult](t, w)
	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, pipeline.CommitOptions{DryRun: true, AllowInvalid: true}, f.bulk.opts)
}

func TestHealth(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := NewRouter(Deps{Auth: fakeAuth{}, DB: fakeDB{err: errors.New("connection refused")}, Logger: discard})
	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "req-123")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(headerRequestID))
}

func TestGRPCHealth(t *testing.T) {
	srv, hs := NewGRPCHealth(discard)
	defer srv.Stop()

	for _, svc := range []string{"", ServiceName} {
		resp, err := hs.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
	}

	hs.Shutdown()
	resp, err := hs.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
