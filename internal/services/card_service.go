package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/metrics"
	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

const (
	cardBIN           = "453900"
	maxActivePerAcct  = 5
	cardValidityYears = 3
)

// IssuedCard carries the full PAN and CVV exactly once, in the issue
// response. Neither is persisted.
type IssuedCard struct {
	models.VirtualCard
	PAN string `json:"pan"`
	CVV string `json:"cvv"`
}

type CardService struct {
	cards    repo.Cards
	trx      repo.Transactions
	users    repo.Users
	accounts *AccountService
	payments *TransferService
	auditor  *Auditor
	notify   *Notifier
}

func NewCardService(cards repo.Cards, trx repo.Transactions, users repo.Users,
	accounts *AccountService, payments *TransferService, auditor *Auditor, notify *Notifier) *CardService {
	return &CardService{
		cards:    cards,
		trx:      trx,
		users:    users,
		accounts: accounts,
		payments: payments,
		auditor:  auditor,
		notify:   notify,
	}
}

func (s *CardService) Issue(ctx context.Context, userID, accountID, label string) (IssuedCard, error) {
	if _, err := s.accounts.Get(ctx, userID, accountID); err != nil {
		return IssuedCard{}, err
	}
	n, err := s.cards.CountActiveByAccount(ctx, accountID)
	if err != nil {
		return IssuedCard{}, err
	}
	if n >= maxActivePerAcct {
		return IssuedCard{}, ErrTooManyCards
	}

	pan := generatePAN()
	cvv := randomDigits(3)
	now := time.Now().AddDate(cardValidityYears, 0, 0)
	label = strings.TrimSpace(label)
	if label == "" {
		label = "Virtual card"
	}

	c, err := s.cards.Create(ctx, models.VirtualCard{
		AccountID: accountID,
		Label:     label,
		MaskedPAN: maskPAN(pan),
		Last4:     pan[len(pan)-4:],
		ExpMonth:  int(now.Month()),
		ExpYear:   now.Year(),
		Status:    models.CardActive,
	})
	if err != nil {
		return IssuedCard{}, err
	}

	metrics.CardsIssued.Inc()
	s.auditor.Record("card", c.ID, userID, "card.issued", map[string]any{"last4": c.Last4})
	if u, err := s.users.GetByID(ctx, userID); err == nil {
		s.notify.CardIssued(u.Email, c.Last4)
	}
	return IssuedCard{VirtualCard: c, PAN: pan, CVV: cvv}, nil
}

func (s *CardService) List(ctx context.Context, userID, accountID string) ([]models.VirtualCard, error) {
	if _, err := s.accounts.Get(ctx, userID, accountID); err != nil {
		return nil, err
	}
	return s.cards.ListByAccount(ctx, accountID)
}

func (s *CardService) Get(ctx context.Context, userID, id string) (models.VirtualCard, error) {
	c, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return models.VirtualCard{}, err
	}
	if _, err := s.accounts.Get(ctx, userID, c.AccountID); err != nil {
		return models.VirtualCard{}, err
	}
	return c, nil
}

func (s *CardService) Freeze(ctx context.Context, userID, id string) error {
	return s.setStatus(ctx, userID, id, models.CardFrozen, "card.frozen")
}

func (s *CardService) Unfreeze(ctx context.Context, userID, id string) error {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if c.Status == models.CardCanceled {
		return ErrCardNotActive
	}
	return s.setStatus(ctx, userID, id, models.CardActive, "card.unfrozen")
}

// Cancel is terminal; a canceled card can never be reactivated.
func (s *CardService) Cancel(ctx context.Context, userID, id string) error {
	return s.setStatus(ctx, userID, id, models.CardCanceled, "card.canceled")
}

func (s *CardService) setStatus(ctx context.Context, userID, id string, status models.CardStatus, action string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.cards.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.auditor.Record("card", id, userID, action, nil)
	return nil
}

func (s *CardService) SetLimit(ctx context.Context, userID, id string, limit *decimal.Decimal) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if limit != nil && !limit.IsPositive() {
		return ErrAmountNotPositive
	}
	if err := s.cards.SetMonthlyLimit(ctx, id, limit); err != nil {
		return err
	}
	details := map[string]any{"limit": nil}
	if limit != nil {
		details["limit"] = limit.String()
	}
	s.auditor.Record("card", id, userID, "card.limit_change", details)
	return nil
}

// Authorize runs a card payment: card status and monthly spend are
// checked here, the account debit goes through the ledger path.
func (s *CardService) Authorize(ctx context.Context, userID, id string, amount decimal.Decimal, merchant string) (models.Transaction, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.Transaction{}, err
	}
	if c.Status != models.CardActive {
		return models.Transaction{}, s.decline(userID, c, amount, merchant, ErrCardNotActive)
	}
	if c.MonthlyLimit != nil {
		monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)
		spent, err := s.trx.SumByCardSince(ctx, c.ID, monthStart)
		if err != nil {
			return models.Transaction{}, err
		}
		if spent.Add(amount).GreaterThan(*c.MonthlyLimit) {
			return models.Transaction{}, s.decline(userID, c, amount, merchant, ErrCardLimitExceeded)
		}
	}

	actor, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.Transaction{}, err
	}
	return s.payments.CardPayment(ctx, actor, c.AccountID, c.ID, amount, merchant)
}

func (s *CardService) decline(userID string, c models.VirtualCard, amount decimal.Decimal, merchant string, err error) error {
	s.auditor.Record("card", c.ID, userID, "card.declined", map[string]any{
		"amount":   amount.String(),
		"merchant": merchant,
		"reason":   err.Error(),
	})
	return err
}

// generatePAN builds a 16-digit Luhn-valid number on our BIN.
func generatePAN() string {
	body := cardBIN + randomDigits(9)
	return body + luhnCheckDigit(body)
}

func randomDigits(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, _ := rand.Int(rand.Reader, big.NewInt(10))
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String()
}

func luhnCheckDigit(body string) string {
	sum := 0
	double := true
	for i := len(body) - 1; i >= 0; i-- {
		d := int(body[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return fmt.Sprintf("%d", (10-sum%10)%10)
}

func maskPAN(pan string) string {
	return pan[:4] + " **** **** " + pan[len(pan)-4:]
}
