package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

type verificationsRepo struct{ pool *pgxpool.Pool }

const verCols = `id, user_id, document_type, document_number, country, status, reason, reviewed_by, reviewed_at, created_at`

func scanVerification(row interface{ Scan(...any) error }) (models.VerificationRequest, error) {
	var v models.VerificationRequest
	err := row.Scan(&v.ID, &v.UserID, &v.DocumentType, &v.DocumentNumber, &v.Country,
		&v.Status, &v.Reason, &v.ReviewedBy, &v.ReviewedAt, &v.CreatedAt)
	return v, wrapErr(err)
}

func (r *verificationsRepo) Create(ctx context.Context, v models.VerificationRequest) (models.VerificationRequest, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return scanVerification(querier(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO verification_requests(id, user_id, document_type, document_number, country, status)
		 VALUES($1,$2,$3,$4,$5,$6)
		 RETURNING `+verCols,
		v.ID, v.UserID, v.DocumentType, v.DocumentNumber, v.Country, v.Status))
}

func (r *verificationsRepo) GetByID(ctx context.Context, id string) (models.VerificationRequest, error) {
	return scanVerification(querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+verCols+` FROM verification_requests WHERE id=$1`, id))
}

func (r *verificationsRepo) LatestByUser(ctx context.Context, userID string) (models.VerificationRequest, error) {
	return scanVerification(querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+verCols+` FROM verification_requests
		  WHERE user_id=$1 ORDER BY created_at DESC LIMIT 1`, userID))
}

func (r *verificationsRepo) ListPending(ctx context.Context, limit, offset int) ([]models.VerificationRequest, error) {
	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT `+verCols+` FROM verification_requests
		  WHERE status='pending' ORDER BY created_at ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.VerificationRequest
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *verificationsRepo) Review(ctx context.Context, id string, status models.VerificationStatus, reason, reviewerID string) error {
	tag, err := querier(ctx, r.pool).Exec(ctx,
		`UPDATE verification_requests
		    SET status=$2, reason=$3, reviewed_by=$4, reviewed_at=now()
		  WHERE id=$1 AND status='pending'`,
		id, status, reason, reviewerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
