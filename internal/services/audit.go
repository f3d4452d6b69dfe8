package services

import (
	"context"
	"log/slog"

	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
	"github.com/solventa/solventa-backend/internal/worker"
)

// Auditor writes compliance records through the worker pool so the
// request path never waits on the audit table.
type Auditor struct {
	logs repo.AuditLogs
	pool *worker.Pool
}

func NewAuditor(logs repo.AuditLogs, pool *worker.Pool) *Auditor {
	return &Auditor{logs: logs, pool: pool}
}

func (a *Auditor) Record(entityType, entityID, actorID, action string, details map[string]any) {
	l := models.AuditLog{
		EntityType: entityType,
		Action:     action,
		Details:    details,
	}
	if entityID != "" {
		l.EntityID = &entityID
	}
	if actorID != "" {
		l.ActorID = &actorID
	}
	a.pool.Submit(func() {
		if err := a.logs.Create(context.Background(), l); err != nil {
			slog.Error("audit write failed", "action", action, "err", err)
		}
	})
}
