package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/models"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

const txnCols = `id, type, status, amount::text, currency, from_account_id, to_account_id, card_id, goal_id, description, idempotency_key, created_at`

func scanTxn(row interface{ Scan(...any) error }) (models.Transaction, error) {
	var tx models.Transaction
	var amount string
	err := row.Scan(&tx.ID, &tx.Type, &tx.Status, &amount, &tx.Currency,
		&tx.FromAccountID, &tx.ToAccountID, &tx.CardID, &tx.GoalID,
		&tx.Description, &tx.IdempotencyKey, &tx.CreatedAt)
	if err != nil {
		return models.Transaction{}, wrapErr(err)
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return models.Transaction{}, err
	}
	tx.Amount = a
	return tx, nil
}

// Create inserts the ledger row. A replayed idempotency key hits the
// unique index; the no-op update lets RETURNING hand back the
// already-existing row instead of erroring.
func (r *transactionsRepo) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	const q = `
INSERT INTO transactions (
  id, type, status, amount, currency, from_account_id, to_account_id, card_id, goal_id, description, idempotency_key
) VALUES ($1,$2,$3,$4::numeric,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (idempotency_key) DO UPDATE
SET idempotency_key = EXCLUDED.idempotency_key
RETURNING ` + txnCols
	return scanTxn(querier(ctx, r.pool).QueryRow(ctx, q,
		tx.ID, tx.Type, tx.Status, tx.Amount.String(), tx.Currency,
		tx.FromAccountID, tx.ToAccountID, tx.CardID, tx.GoalID,
		tx.Description, tx.IdempotencyKey))
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	return scanTxn(querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+txnCols+` FROM transactions WHERE id=$1`, id))
}

func (r *transactionsRepo) GetByIdempotencyKey(ctx context.Context, key string) (models.Transaction, error) {
	return scanTxn(querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+txnCols+` FROM transactions WHERE idempotency_key=$1`, key))
}

func (r *transactionsRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error) {
	return r.list(ctx,
		`SELECT `+txnCols+` FROM transactions
		  WHERE from_account_id=$1 OR to_account_id=$1
		  ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
}

func (r *transactionsRepo) ListAll(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	return r.list(ctx,
		`SELECT `+txnCols+` FROM transactions ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (r *transactionsRepo) list(ctx context.Context, q string, args ...any) ([]models.Transaction, error) {
	rows, err := querier(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *transactionsRepo) SumOutgoingSince(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
	return r.sum(ctx,
		`SELECT COALESCE(SUM(amount),0)::text FROM transactions
		  WHERE from_account_id=$1 AND status='completed' AND created_at >= $2`,
		accountID, since)
}

func (r *transactionsRepo) SumByCardSince(ctx context.Context, cardID string, since time.Time) (decimal.Decimal, error) {
	return r.sum(ctx,
		`SELECT COALESCE(SUM(amount),0)::text FROM transactions
		  WHERE card_id=$1 AND status='completed' AND created_at >= $2`,
		cardID, since)
}

func (r *transactionsRepo) sum(ctx context.Context, q string, args ...any) (decimal.Decimal, error) {
	var s string
	if err := querier(ctx, r.pool).QueryRow(ctx, q, args...).Scan(&s); err != nil {
		return decimal.Zero, wrapErr(err)
	}
	return decimal.NewFromString(s)
}
