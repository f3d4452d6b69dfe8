package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

type accountsRepo struct{ pool *pgxpool.Pool }

// balance is selected as text and parsed; numeric never goes through
// a float.
const accountCols = `id, user_id, number, name, currency, balance::text, status, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (models.Account, error) {
	var a models.Account
	var balance string
	if err := row.Scan(&a.ID, &a.UserID, &a.Number, &a.Name, &a.Currency, &balance, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return models.Account{}, wrapErr(err)
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return models.Account{}, err
	}
	a.Balance = b
	return a, nil
}

func (r *accountsRepo) Create(ctx context.Context, a models.Account) (models.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := querier(ctx, r.pool).Exec(ctx,
		`INSERT INTO accounts(id, user_id, number, name, currency, balance, status)
		 VALUES($1,$2,$3,$4,$5,$6::numeric,$7)`,
		a.ID, a.UserID, a.Number, a.Name, a.Currency, a.Balance.String(), a.Status,
	)
	if err != nil {
		return models.Account{}, err
	}
	return r.GetByID(ctx, a.ID)
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (models.Account, error) {
	return scanAccount(querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id=$1`, id))
}

func (r *accountsRepo) GetForUpdate(ctx context.Context, id string) (models.Account, error) {
	return scanAccount(querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id=$1 FOR UPDATE`, id))
}

func (r *accountsRepo) GetPrimaryByUser(ctx context.Context, userID string) (models.Account, error) {
	return scanAccount(querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts
		  WHERE user_id=$1 AND status='active'
		  ORDER BY created_at ASC LIMIT 1`, userID))
}

func (r *accountsRepo) ListByUser(ctx context.Context, userID string) ([]models.Account, error) {
	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE user_id=$1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountsRepo) ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) (models.Account, error) {
	return scanAccount(querier(ctx, r.pool).QueryRow(ctx,
		`UPDATE accounts
		    SET balance = balance + $2::numeric,
		        updated_at = now()
		  WHERE id=$1
		  RETURNING `+accountCols, id, delta.String()))
}

func (r *accountsRepo) SetStatus(ctx context.Context, id string, status models.AccountStatus) error {
	tag, err := querier(ctx, r.pool).Exec(ctx,
		`UPDATE accounts SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
