package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solventa/solventa-backend/internal/models"
)

type auditLogsRepo struct{ pool *pgxpool.Pool }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	_, err := querier(ctx, r.pool).Exec(ctx,
		`INSERT INTO audit_logs(entity_type, entity_id, actor_id, action, details)
		 VALUES($1,$2,$3,$4,$5)`,
		l.EntityType, l.EntityID, l.ActorID, l.Action, l.Details)
	return err
}

func (r *auditLogsRepo) List(ctx context.Context, entityType string, entityID *string, limit, offset int) ([]models.AuditLog, error) {
	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT id, entity_type, entity_id, actor_id, action, details, created_at
		   FROM audit_logs
		  WHERE ($1 = '' OR entity_type = $1)
		    AND ($2::uuid IS NULL OR entity_id = $2::uuid)
		  ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.ActorID, &l.Action, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
