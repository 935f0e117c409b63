package repository

import (
	"context"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/hr-ingest/internal/common"
)

type RoleRepository interface {
	RoleForUser(ctx context.Context, userID string) (string, error)
	SetRole(ctx context.Context, userID, role string) error
}

type roleRepo struct {
	db  *DB
	log *slog.Logger
}

func NewRoleRepository(db *DB, log *slog.Logger) RoleRepository {
	if log == nil {
		log = slog.Default()
	}
	return &roleRepo{db: db, log: log}
}

// RoleForUser returns common.ErrNotFound when the user has no role row.
func (r *roleRepo) RoleForUser(ctx context.Context, userID string) (string, error) {
	q, args := r.db.builder().Select("role").
		From(entsql.Table(tableUserRoles)).
		Where(entsql.EQ("user_id", userID)).
		Limit(1).
		Query()
	rows, err := query(ctx, r.db.drv, q, args)
	if err != nil {
		r.log.Error("user_role lookup failed", "user_id", userID, "err", err)
		return "", err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		return "", fmt.Errorf("role for %q: %w", userID, common.ErrNotFound)
	}
	var role string
	if err := rows.Scan(&role); err != nil {
		return "", fmt.Errorf("%w: scan role: %v", common.ErrDatabase, err)
	}
	return role, nil
}

func (r *roleRepo) SetRole(ctx context.Context, userID, role string) error {
	q, args := r.db.builder().Insert(tableUserRoles).
		Columns("user_id", "role", "updated_at").
		Values(userID, role, now()).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := exec(ctx, r.db.drv, q, args); err != nil {
		r.log.Error("user_role upsert failed", "user_id", userID, "err", err)
		return err
	}
	r.log.Info("user_role set", "user_id", userID, "role", role)
	return nil
}
