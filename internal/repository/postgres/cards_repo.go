package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

type cardsRepo struct{ pool *pgxpool.Pool }

const cardCols = `id, account_id, label, masked_pan, last4, exp_month, exp_year, status, monthly_limit::text, created_at, updated_at`

func scanCard(row interface{ Scan(...any) error }) (models.VirtualCard, error) {
	var c models.VirtualCard
	var limit *string
	err := row.Scan(&c.ID, &c.AccountID, &c.Label, &c.MaskedPAN, &c.Last4,
		&c.ExpMonth, &c.ExpYear, &c.Status, &limit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.VirtualCard{}, wrapErr(err)
	}
	if limit != nil {
		l, err := decimal.NewFromString(*limit)
		if err != nil {
			return models.VirtualCard{}, err
		}
		c.MonthlyLimit = &l
	}
	return c, nil
}

func (r *cardsRepo) Create(ctx context.Context, c models.VirtualCard) (models.VirtualCard, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var limit *string
	if c.MonthlyLimit != nil {
		s := c.MonthlyLimit.String()
		limit = &s
	}
	return scanCard(querier(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO virtual_cards(id, account_id, label, masked_pan, last4, exp_month, exp_year, status, monthly_limit)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9::numeric)
		 RETURNING `+cardCols,
		c.ID, c.AccountID, c.Label, c.MaskedPAN, c.Last4, c.ExpMonth, c.ExpYear, c.Status, limit))
}

func (r *cardsRepo) GetByID(ctx context.Context, id string) (models.VirtualCard, error) {
	return scanCard(querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cardCols+` FROM virtual_cards WHERE id=$1`, id))
}

func (r *cardsRepo) ListByAccount(ctx context.Context, accountID string) ([]models.VirtualCard, error) {
	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT `+cardCols+` FROM virtual_cards WHERE account_id=$1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.VirtualCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *cardsRepo) CountActiveByAccount(ctx context.Context, accountID string) (int, error) {
	var n int
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM virtual_cards WHERE account_id=$1 AND status='active'`, accountID).Scan(&n)
	return n, wrapErr(err)
}

func (r *cardsRepo) SetStatus(ctx context.Context, id string, status models.CardStatus) error {
	tag, err := querier(ctx, r.pool).Exec(ctx,
		`UPDATE virtual_cards SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *cardsRepo) SetMonthlyLimit(ctx context.Context, id string, limit *decimal.Decimal) error {
	var s *string
	if limit != nil {
		v := limit.String()
		s = &v
	}
	tag, err := querier(ctx, r.pool).Exec(ctx,
		`UPDATE virtual_cards SET monthly_limit=$2::numeric, updated_at=now() WHERE id=$1`, id, s)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
