package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/joseph-ayodele/hr-ingest/internal/common"
)

const (
	tableImportJobs = "import_jobs"
	tableEmployees  = "employees"
	tableUserRoles  = "user_roles"
)

var (
	// ImportJobsColumns holds the columns for the "import_jobs" table.
	ImportJobsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "file_name", Type: field.TypeString},
		{Name: "file_key", Type: field.TypeString},
		{Name: "mime_type", Type: field.TypeString, Default: ""},
		{Name: "file_size_bytes", Type: field.TypeInt64, Default: 0},
		{Name: "uploaded_by", Type: field.TypeString},
		{Name: "status", Type: field.TypeString, Size: 32},
		{Name: "result_payload", Type: field.TypeJSON, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "processed_at", Type: field.TypeTime, Nullable: true},
	}
	// ImportJobsTable holds the schema information for the "import_jobs" table.
	ImportJobsTable = &schema.Table{
		Name:       tableImportJobs,
		Columns:    ImportJobsColumns,
		PrimaryKey: []*schema.Column{ImportJobsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "importjob_uploaded_by_created_at",
				Unique:  false,
				Columns: []*schema.Column{ImportJobsColumns[5], ImportJobsColumns[8]},
			},
			{
				Name:    "importjob_status_created_at",
				Unique:  false,
				Columns: []*schema.Column{ImportJobsColumns[6], ImportJobsColumns[8]},
			},
		},
	}
	// EmployeesColumns holds the columns for the "employees" table.
	EmployeesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "emp_code", Type: field.TypeString, Unique: true, Nullable: true},
		{Name: "first_name", Type: field.TypeString},
		{Name: "last_name", Type: field.TypeString, Nullable: true},
		{Name: "email", Type: field.TypeString, Unique: true, Nullable: true},
		{Name: "phone", Type: field.TypeString, Nullable: true},
		{Name: "department", Type: field.TypeString, Nullable: true},
		{Name: "designation", Type: field.TypeString, Nullable: true},
		{Name: "location", Type: field.TypeString, Nullable: true},
		{Name: "doj", Type: field.TypeString, Nullable: true, Size: 10},
		{Name: "status", Type: field.TypeString, Nullable: true},
		{Name: "monthly_ctc", Type: field.TypeFloat64, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// EmployeesTable holds the schema information for the "employees" table.
	EmployeesTable = &schema.Table{
		Name:       tableEmployees,
		Columns:    EmployeesColumns,
		PrimaryKey: []*schema.Column{EmployeesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "employee_department",
				Unique:  false,
				Columns: []*schema.Column{EmployeesColumns[6]},
			},
		},
	}
	// UserRolesColumns holds the columns for the "user_roles" table.
	UserRolesColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "role", Type: field.TypeString, Size: 32},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// UserRolesTable holds the schema information for the "user_roles" table.
	UserRolesTable = &schema.Table{
		Name:       tableUserRoles,
		Columns:    UserRolesColumns,
		PrimaryKey: []*schema.Column{UserRolesColumns[0]},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ImportJobsTable,
		EmployeesTable,
		UserRolesTable,
	}
)

// Migrate creates or updates the tables. It never drops columns or indexes.
func (d *DB) Migrate(ctx context.Context) error {
	d.logger.Info("db.migrate.start", "tables", len(Tables))
	m, err := schema.NewMigrate(d.drv)
	if err != nil {
		return fmt.Errorf("%w: migrate: %v", common.ErrDatabase, err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		d.logger.Error("db.migrate.failed", "error", err)
		return fmt.Errorf("%w: migrate: %v", common.ErrDatabase, err)
	}
	d.logger.Info("db.migrate.ok")
	return nil
}
