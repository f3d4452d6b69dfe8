package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

type goalsRepo struct{ pool *pgxpool.Pool }

const goalCols = `id, user_id, account_id, name, target_amount::text, saved_amount::text, target_date, status, created_at, updated_at`

func scanGoal(row interface{ Scan(...any) error }) (models.SavingsGoal, error) {
	var g models.SavingsGoal
	var target, saved string
	err := row.Scan(&g.ID, &g.UserID, &g.AccountID, &g.Name, &target, &saved,
		&g.TargetDate, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return models.SavingsGoal{}, wrapErr(err)
	}
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return models.SavingsGoal{}, err
	}
	if g.SavedAmount, err = decimal.NewFromString(saved); err != nil {
		return models.SavingsGoal{}, err
	}
	return g, nil
}

func (r *goalsRepo) Create(ctx context.Context, g models.SavingsGoal) (models.SavingsGoal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return scanGoal(querier(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO savings_goals(id, user_id, account_id, name, target_amount, target_date, status)
		 VALUES($1,$2,$3,$4,$5::numeric,$6,$7)
		 RETURNING `+goalCols,
		g.ID, g.UserID, g.AccountID, g.Name, g.TargetAmount.String(), g.TargetDate, g.Status))
}

func (r *goalsRepo) GetByID(ctx context.Context, id string) (models.SavingsGoal, error) {
	return scanGoal(querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+goalCols+` FROM savings_goals WHERE id=$1`, id))
}

func (r *goalsRepo) ListByUser(ctx context.Context, userID string) ([]models.SavingsGoal, error) {
	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT `+goalCols+` FROM savings_goals WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *goalsRepo) ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) (models.SavingsGoal, error) {
	return scanGoal(querier(ctx, r.pool).QueryRow(ctx,
		`UPDATE savings_goals
		    SET saved_amount = saved_amount + $2::numeric,
		        updated_at = now()
		  WHERE id=$1
		  RETURNING `+goalCols, id, delta.String()))
}

func (r *goalsRepo) SetStatus(ctx context.Context, id string, status models.GoalStatus) error {
	tag, err := querier(ctx, r.pool).Exec(ctx,
		`UPDATE savings_goals SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
