package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

type AccountService struct {
	acc     repo.Accounts
	auditor *Auditor
}

func NewAccountService(acc repo.Accounts, auditor *Auditor) *AccountService {
	return &AccountService{acc: acc, auditor: auditor}
}

// NewAccountNumber returns a random 12-digit account number.
func NewAccountNumber() string {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String()
}

func (s *AccountService) Open(ctx context.Context, userID, name, currency string) (models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Account"
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return models.Account{}, errors.New("invalid currency code")
	}

	a, err := s.acc.Create(ctx, models.Account{
		UserID:   userID,
		Number:   NewAccountNumber(),
		Name:     name,
		Currency: currency,
		Status:   models.AccountActive,
	})
	if err != nil {
		return models.Account{}, err
	}
	s.auditor.Record("account", a.ID, userID, "account.opened", map[string]any{"currency": currency})
	return a, nil
}

func (s *AccountService) List(ctx context.Context, userID string) ([]models.Account, error) {
	return s.acc.ListByUser(ctx, userID)
}

func (s *AccountService) Get(ctx context.Context, userID, id string) (models.Account, error) {
	a, err := s.acc.GetByID(ctx, id)
	if err != nil {
		return models.Account{}, err
	}
	if a.UserID != userID {
		return models.Account{}, ErrForbidden
	}
	return a, nil
}

// Close marks the account closed; only allowed at zero balance.
func (s *AccountService) Close(ctx context.Context, userID, id string) error {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if !a.Balance.IsZero() {
		return ErrBalanceNotZero
	}
	if err := s.acc.SetStatus(ctx, id, models.AccountClosed); err != nil {
		return err
	}
	s.auditor.Record("account", id, userID, "account.closed", nil)
	return nil
}

// SetStatus is the admin freeze/unfreeze path.
func (s *AccountService) SetStatus(ctx context.Context, actorID, id string, status models.AccountStatus) error {
	if _, err := s.acc.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.acc.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.auditor.Record("account", id, actorID, "account.status_change", map[string]any{"status": string(status)})
	return nil
}
