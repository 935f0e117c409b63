package pipeline

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
	"github.com/joseph-ayodele/hr-ingest/internal/repository"
)

func newBulk(t *testing.T) (*Bulk, repository.EmployeeRepository) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, "file:"+uuid.NewString()+"?mode=memory", discard)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	repo := repository.NewEmployeeRepository(db, discard)
	return NewBulk(discard, repo), repo
}

func seed(t *testing.T, repo repository.EmployeeRepository) {
	t.Helper()
	_, err := repo.ApplyBatch(context.Background(), []repository.EmployeeWrite{
		{Draft: entity.EmployeeRecordDraft{EmpCode: "E001", FirstName: "Asha", Email: "asha@example.com"}},
		{Draft: entity.EmployeeRecordDraft{FirstName: "Ravi", Email: "ravi@example.com"}},
	})
	require.NoError(t, err)
}

const bulkCSV = `Employee Code,First Name,Email,Department
E001,Asha,asha@example.com,Engineering
,Ravi,RAVI@example.com,Sales
E003,Meera,meera@example.com,Finance
E004,,broken,Mars
`

func TestBulk_Preview(t *testing.T) {
	b, repo := newBulk(t)
	seed(t, repo)

	res, err := b.Preview(context.Background(), []byte(bulkCSV))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 1, res.Create)
	assert.Equal(t, 2, res.Update)
	assert.Equal(t, 1, res.Invalid)

	require.Len(t, res.Rows, 4)
	assert.Equal(t, ActionUpdate, res.Rows[0].Action)
	require.NotNil(t, res.Rows[0].ExistingID)
	assert.Equal(t, ActionUpdate, res.Rows[1].Action, "matched by email")
	assert.Equal(t, ActionCreate, res.Rows[2].Action)
	assert.Equal(t, ActionInvalid, res.Rows[3].Action)
	assert.Equal(t, 5, res.Rows[3].Row)
	// strict mode keeps the bad email and flags it
	assert.Equal(t, "broken", res.Rows[3].Draft.Email)
	assert.ElementsMatch(t,
		[]string{"First name is required", "Invalid email", "Invalid department"},
		res.Rows[3].Draft.ValidationErrors)

	// preview never writes
	list, err := repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBulk_CommitBlockedByInvalidRows(t *testing.T) {
	b, repo := newBulk(t)

	_, err := b.Commit(context.Background(), []byte(bulkCSV), CommitOptions{})
	var blocked *common.CommitBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, 1, blocked.Invalid)

	list, err := repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBulk_CommitDryRunWritesNothing(t *testing.T) {
	b, repo := newBulk(t)
	seed(t, repo)

	res, err := b.Commit(context.Background(), []byte(bulkCSV), CommitOptions{DryRun: true, AllowInvalid: true})
	require.NoError(t, err)
	assert.Equal(t, CommitResult{Total: 4, Created: 1, Updated: 2, Skipped: 1, DryRun: true}, *res)

	list, err := repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBulk_CommitAllowInvalidSkipsRows(t *testing.T) {
	b, repo := newBulk(t)
	seed(t, repo)

	res, err := b.Commit(context.Background(), []byte(bulkCSV), CommitOptions{AllowInvalid: true})
	require.NoError(t, err)
	assert.Equal(t, CommitResult{Total: 4, Created: 1, Updated: 2, Skipped: 1}, *res)

	list, err := repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)

	found, err := repo.FindByCodesOrEmails(context.Background(), []string{"E001", "E003"}, nil)
	require.NoError(t, err)
	for _, e := range found {
		require.NotNil(t, e.Department)
	}
	assert.Len(t, found, 2)
}

func TestBulk_DuplicateRowsInFile(t *testing.T) {
	b, _ := newBulk(t)
	csv := "emp code,first name,email\nE1,A,a@example.com\nE1,B,b@example.com\nE2,C,A@example.com\n"

	res, err := b.Preview(context.Background(), []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Create)
	assert.Equal(t, 2, res.Invalid)
	assert.Equal(t, []string{MsgDuplicateInFile}, res.Rows[1].Draft.ValidationErrors)
	assert.False(t, res.Rows[2].Draft.IsValid)
}

func TestBulk_CommitRows(t *testing.T) {
	b, repo := newBulk(t)
	rows := [][]string{
		{"ID", "Name", "E-mail"},
		{"E9", "Kiran", "kiran@example.com"},
	}
	res, err := b.CommitRows(context.Background(), rows, CommitOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	list, err := repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Kiran", list[0].FirstName)
}

func TestBulk_PreviewWithoutHeader(t *testing.T) {
	b, _ := newBulk(t)
	_, err := b.Preview(context.Background(), []byte(""))
	var parseErr *common.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
