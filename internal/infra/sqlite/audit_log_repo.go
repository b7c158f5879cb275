package sqlite

import (
	"context"
	"strings"

	"farmmarket/internal/domain/model"
	repo "farmmarket/internal/repository"

	"github.com/jmoiron/sqlx"
)

type AuditLogRepo struct {
	db sqlx.ExtContext
}

func NewAuditLogRepo(db sqlx.ExtContext) *AuditLogRepo {
	return &AuditLogRepo{db: db}
}

func (r *AuditLogRepo) Create(ctx context.Context, log model.AuditLog) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, `
INSERT INTO audit_logs(actor_user_id, action, resource_type, resource_id, product_id, before_json, after_json, created_at)
VALUES(:actor_user_id, :action, :resource_type, :resource_id, :product_id, :before_json, :after_json, :created_at)`, log)
	return err
}

func (r *AuditLogRepo) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	filter = filter.Normalize()

	var where []string
	var args []any
	if filter.ActorUserID != nil {
		where = append(where, "actor_user_id = ?")
		args = append(args, *filter.ActorUserID)
	}
	if filter.Action != nil {
		where = append(where, "action = ?")
		args = append(args, *filter.Action)
	}
	if filter.ResourceType != nil {
		where = append(where, "resource_type = ?")
		args = append(args, *filter.ResourceType)
	}
	if filter.ResourceID != nil {
		where = append(where, "resource_id = ?")
		args = append(args, *filter.ResourceID)
	}
	if filter.ProductID != nil {
		where = append(where, "product_id = ?")
		args = append(args, *filter.ProductID)
	}
	if filter.CreatedFrom != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		where = append(where, "created_at <= ?")
		args = append(args, *filter.CreatedTo)
	}

	q := `SELECT id, actor_user_id, action, resource_type, resource_id, product_id, before_json, after_json, created_at FROM audit_logs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	logs := []model.AuditLog{}
	if err := sqlx.SelectContext(ctx, r.db, &logs, q, args...); err != nil {
		return nil, err
	}
	return logs, nil
}
