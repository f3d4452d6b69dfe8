package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/models"
)

// ErrNotFound is returned by all repositories when no row matches.
var ErrNotFound = errors.New("not found")

// TxRunner executes fn inside a single serializable database
// transaction. Repository calls made with the ctx passed to fn run on
// that transaction; the ledger path depends on this.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Users interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateProfile(ctx context.Context, id, username string) error
	SetKYCStatus(ctx context.Context, id string, status models.KYCStatus) error
}

type Accounts interface {
	Create(ctx context.Context, a models.Account) (models.Account, error)
	GetByID(ctx context.Context, id string) (models.Account, error)
	// GetForUpdate reads the row with a row lock; only meaningful
	// inside TxRunner.WithTx.
	GetForUpdate(ctx context.Context, id string) (models.Account, error)
	GetPrimaryByUser(ctx context.Context, userID string) (models.Account, error)
	ListByUser(ctx context.Context, userID string) ([]models.Account, error)
	ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) (models.Account, error)
	SetStatus(ctx context.Context, id string, status models.AccountStatus) error
}

type Transactions interface {
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (models.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Transaction, error)
	SumOutgoingSince(ctx context.Context, accountID string, since time.Time) (decimal.Decimal, error)
	SumByCardSince(ctx context.Context, cardID string, since time.Time) (decimal.Decimal, error)
}

type Cards interface {
	Create(ctx context.Context, c models.VirtualCard) (models.VirtualCard, error)
	GetByID(ctx context.Context, id string) (models.VirtualCard, error)
	ListByAccount(ctx context.Context, accountID string) ([]models.VirtualCard, error)
	CountActiveByAccount(ctx context.Context, accountID string) (int, error)
	SetStatus(ctx context.Context, id string, status models.CardStatus) error
	SetMonthlyLimit(ctx context.Context, id string, limit *decimal.Decimal) error
}

type SavingsGoals interface {
	Create(ctx context.Context, g models.SavingsGoal) (models.SavingsGoal, error)
	GetByID(ctx context.Context, id string) (models.SavingsGoal, error)
	ListByUser(ctx context.Context, userID string) ([]models.SavingsGoal, error)
	ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) (models.SavingsGoal, error)
	SetStatus(ctx context.Context, id string, status models.GoalStatus) error
}

type Verifications interface {
	Create(ctx context.Context, v models.VerificationRequest) (models.VerificationRequest, error)
	GetByID(ctx context.Context, id string) (models.VerificationRequest, error)
	LatestByUser(ctx context.Context, userID string) (models.VerificationRequest, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.VerificationRequest, error)
	Review(ctx context.Context, id string, status models.VerificationStatus, reason, reviewerID string) error
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
	List(ctx context.Context, entityType string, entityID *string, limit, offset int) ([]models.AuditLog, error)
}
