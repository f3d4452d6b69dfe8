package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every query
// in this package can run standalone or inside WithTx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

func querier(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

func wrapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}

type txRunner struct{ pool *pgxpool.Pool }

func (r *txRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type Repositories struct {
	Runner        repo.TxRunner
	Users         repo.Users
	Accounts      repo.Accounts
	Transactions  repo.Transactions
	Cards         repo.Cards
	SavingsGoals  repo.SavingsGoals
	Verifications repo.Verifications
	AuditLogs     repo.AuditLogs
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Runner:        &txRunner{pool},
		Users:         &usersRepo{pool},
		Accounts:      &accountsRepo{pool},
		Transactions:  &transactionsRepo{pool},
		Cards:         &cardsRepo{pool},
		SavingsGoals:  &goalsRepo{pool},
		Verifications: &verificationsRepo{pool},
		AuditLogs:     &auditLogsRepo{pool},
	}
}
