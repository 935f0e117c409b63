package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/hr-ingest/internal/common"
	"github.com/joseph-ayodele/hr-ingest/internal/entity"
)

var employeeColumns = []string{
	"id", "emp_code", "first_name", "last_name", "email", "phone", "department",
	"designation", "location", "doj", "status", "monthly_ctc", "created_at", "updated_at",
}

// EmployeeWrite is one row of a bulk commit. A nil ID inserts.
type EmployeeWrite struct {
	ID    uuid.UUID
	Draft entity.EmployeeRecordDraft
}

// BatchResult counts what ApplyBatch wrote.
type BatchResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type EmployeeRepository interface {
	FindByCodesOrEmails(ctx context.Context, codes, emails []string) ([]*entity.Employee, error)
	ApplyBatch(ctx context.Context, writes []EmployeeWrite) (BatchResult, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Employee, error)
}

type employeeRepo struct {
	db  *DB
	log *slog.Logger
}

func NewEmployeeRepository(db *DB, log *slog.Logger) EmployeeRepository {
	if log == nil {
		log = slog.Default()
	}
	return &employeeRepo{db: db, log: log}
}

func (r *employeeRepo) FindByCodesOrEmails(ctx context.Context, codes, emails []string) ([]*entity.Employee, error) {
	var preds []*entsql.Predicate
	if args := toArgs(codes, false); len(args) > 0 {
		preds = append(preds, entsql.In("emp_code", args...))
	}
	if args := toArgs(emails, true); len(args) > 0 {
		preds = append(preds, entsql.In("email", args...))
	}
	if len(preds) == 0 {
		return nil, nil
	}
	q, args := r.db.builder().Select(employeeColumns...).
		From(entsql.Table(tableEmployees)).
		Where(entsql.Or(preds...)).
		Query()
	return r.queryEmployees(ctx, r.db.drv, q, args)
}

func (r *employeeRepo) List(ctx context.Context, limit, offset int) ([]*entity.Employee, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	sel := r.db.builder().Select(employeeColumns...).
		From(entsql.Table(tableEmployees)).
		OrderBy("first_name", "id").
		Limit(limit)
	if offset > 0 {
		sel.Offset(offset)
	}
	q, args := sel.Query()
	return r.queryEmployees(ctx, r.db.drv, q, args)
}

// ApplyBatch writes every row in one transaction. Updates only overwrite
// columns for which the draft carries a value.
func (r *employeeRepo) ApplyBatch(ctx context.Context, writes []EmployeeWrite) (res BatchResult, err error) {
	if len(writes) == 0 {
		return res, nil
	}
	tx, err := r.db.drv.Tx(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.log.Error("employee batch rollback failed", "err", rbErr)
			}
			res = BatchResult{}
		}
	}()

	ts := now()
	for _, w := range writes {
		d := w.Draft
		if w.ID == uuid.Nil {
			q, args := r.db.builder().Insert(tableEmployees).
				Columns(employeeColumns...).
				Values(
					uuid.New(), nullString(d.EmpCode), strings.TrimSpace(d.FirstName), nullString(d.LastName),
					nullString(strings.ToLower(d.Email)), nullString(d.Phone), nullString(d.Department),
					nullString(d.Designation), nullString(d.Location), nullString(d.DOJ), nullString(d.Status),
					nullFloat(d.MonthlyCTC), ts, ts,
				).
				Query()
			if _, err = exec(ctx, tx, q, args); err != nil {
				r.log.Error("employee insert failed", "row", d.Row, "err", err)
				return res, fmt.Errorf("row %d: %w", d.Row, err)
			}
			res.Created++
			continue
		}

		upd := r.db.builder().Update(tableEmployees).Set("updated_at", ts)
		setIf := func(col, v string) {
			if v = strings.TrimSpace(v); v != "" {
				upd.Set(col, v)
			}
		}
		setIf("emp_code", d.EmpCode)
		setIf("first_name", d.FirstName)
		setIf("last_name", d.LastName)
		setIf("email", strings.ToLower(d.Email))
		setIf("phone", d.Phone)
		setIf("department", d.Department)
		setIf("designation", d.Designation)
		setIf("location", d.Location)
		setIf("doj", d.DOJ)
		setIf("status", d.Status)
		if d.MonthlyCTC != nil {
			upd.Set("monthly_ctc", *d.MonthlyCTC)
		}
		q, args := upd.Where(entsql.EQ("id", w.ID)).Query()
		var n int64
		if n, err = exec(ctx, tx, q, args); err != nil {
			r.log.Error("employee update failed", "row", d.Row, "employee_id", w.ID, "err", err)
			return res, fmt.Errorf("row %d: %w", d.Row, err)
		}
		if n == 0 {
			err = fmt.Errorf("row %d: employee %s: %w", d.Row, w.ID, common.ErrNotFound)
			return res, err
		}
		res.Updated++
	}

	if err = tx.Commit(); err != nil {
		return res, fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	r.log.Info("employee batch applied", "created", res.Created, "updated", res.Updated)
	return res, nil
}

func (r *employeeRepo) queryEmployees(ctx context.Context, x execer, q string, args []any) ([]*entity.Employee, error) {
	rows, err := query(ctx, x, q, args)
	if err != nil {
		r.log.Error("employee query failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Employee
	for rows.Next() {
		var (
			e                                     entity.Employee
			code, last, email, phone, dept, desig sql.NullString
			loc, doj, status                      sql.NullString
			ctc                                   sql.NullFloat64
		)
		if err := rows.Scan(
			&e.ID, &code, &e.FirstName, &last, &email, &phone, &dept,
			&desig, &loc, &doj, &status, &ctc, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan employee: %v", common.ErrDatabase, err)
		}
		e.EmpCode = strPtr(code)
		e.LastName = strPtr(last)
		e.Email = strPtr(email)
		e.Phone = strPtr(phone)
		e.Department = strPtr(dept)
		e.Designation = strPtr(desig)
		e.Location = strPtr(loc)
		e.DOJ = strPtr(doj)
		e.Status = strPtr(status)
		if ctc.Valid {
			v := ctc.Float64
			e.MonthlyCTC = &v
		}
		e.CreatedAt = e.CreatedAt.UTC()
		e.UpdatedAt = e.UpdatedAt.UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func toArgs(values []string, lower bool) []any {
	seen := make(map[string]struct{}, len(values))
	args := make([]any, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		args = append(args, v)
	}
	return args
}

func nullString(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
