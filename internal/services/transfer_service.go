package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/config"
	"github.com/solventa/solventa-backend/internal/metrics"
	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

// IdemCache is the fast-path lookup for idempotency keys. The unique
// column on the transactions table remains the durable guard.
type IdemCache interface {
	Lookup(ctx context.Context, key string) (string, bool)
	Store(ctx context.Context, key, txID string)
}

// TransferService owns the ledger path: validate, check restrictions,
// debit, credit, record. Every movement runs inside one serializable
// DB transaction with both account rows locked, and the transaction
// row is written in the same DB transaction.
type TransferService struct {
	runner  repo.TxRunner
	trx     repo.Transactions
	acc     repo.Accounts
	users   repo.Users
	auditor *Auditor
	notify  *Notifier
	idem    IdemCache

	kycExemptLimit decimal.Decimal
	dailyLimit     decimal.Decimal
}

type noopIdem struct{}

func (noopIdem) Lookup(context.Context, string) (string, bool) { return "", false }
func (noopIdem) Store(context.Context, string, string)         {}

// errKeyReplayed aborts a movement whose idempotency key turned out to
// be taken mid-transaction, so the balance deltas roll back.
var errKeyReplayed = errors.New("idempotency key replayed")

func NewTransferService(runner repo.TxRunner, trx repo.Transactions, acc repo.Accounts, users repo.Users,
	auditor *Auditor, notify *Notifier, idem IdemCache, cfg config.Config) *TransferService {
	if idem == nil {
		idem = noopIdem{}
	}
	return &TransferService{
		runner:         runner,
		trx:            trx,
		acc:            acc,
		users:          users,
		auditor:        auditor,
		notify:         notify,
		idem:           idem,
		kycExemptLimit: cfg.KYCExemptLimit,
		dailyLimit:     cfg.DailyTransferLimit,
	}
}

type moveReq struct {
	typ         models.TransactionType
	from        *string
	to          *string
	amount      decimal.Decimal
	actor       models.User
	description string
	cardID      *string
	goalID      *string
	idemKey     string
}

func (s *TransferService) Deposit(ctx context.Context, actorID, accountID string, amount decimal.Decimal, idemKey string) (models.Transaction, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return models.Transaction{}, err
	}
	return s.move(ctx, moveReq{
		typ:     models.TxnDeposit,
		to:      &accountID,
		amount:  amount,
		actor:   actor,
		idemKey: idemKey,
	})
}

func (s *TransferService) Withdraw(ctx context.Context, actorID, accountID string, amount decimal.Decimal, idemKey string) (models.Transaction, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return models.Transaction{}, err
	}
	return s.move(ctx, moveReq{
		typ:     models.TxnWithdrawal,
		from:    &accountID,
		amount:  amount,
		actor:   actor,
		idemKey: idemKey,
	})
}

func (s *TransferService) Transfer(ctx context.Context, actorID, fromID, toID string, amount decimal.Decimal, description, idemKey string) (models.Transaction, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return models.Transaction{}, err
	}
	return s.move(ctx, moveReq{
		typ:         models.TxnTransfer,
		from:        &fromID,
		to:          &toID,
		amount:      amount,
		actor:       actor,
		description: description,
		idemKey:     idemKey,
	})
}

// P2P resolves the recipient by email to their primary active account
// and records the movement like any other transfer.
func (s *TransferService) P2P(ctx context.Context, actorID, fromID, recipientEmail string, amount decimal.Decimal, description, idemKey string) (models.Transaction, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return models.Transaction{}, err
	}
	recipient, err := s.users.GetByEmail(ctx, recipientEmail)
	if err != nil {
		return models.Transaction{}, err
	}
	dest, err := s.acc.GetPrimaryByUser(ctx, recipient.ID)
	if err != nil {
		return models.Transaction{}, err
	}
	return s.move(ctx, moveReq{
		typ:         models.TxnP2P,
		from:        &fromID,
		to:          &dest.ID,
		amount:      amount,
		actor:       actor,
		description: description,
		idemKey:     idemKey,
	})
}

// CardPayment debits the card's account; card-level checks (status,
// monthly limit) are the card service's job.
func (s *TransferService) CardPayment(ctx context.Context, actor models.User, accountID, cardID string, amount decimal.Decimal, merchant string) (models.Transaction, error) {
	return s.move(ctx, moveReq{
		typ:         models.TxnCardPayment,
		from:        &accountID,
		amount:      amount,
		actor:       actor,
		description: merchant,
		cardID:      &cardID,
	})
}

func (s *TransferService) move(ctx context.Context, m moveReq) (models.Transaction, error) {
	if !m.amount.IsPositive() {
		return models.Transaction{}, s.reject(m, ErrAmountNotPositive)
	}
	if m.from != nil && m.to != nil && *m.from == *m.to {
		return models.Transaction{}, s.reject(m, ErrSameAccount)
	}

	if m.idemKey != "" {
		if id, ok := s.idem.Lookup(ctx, m.idemKey); ok {
			return s.trx.GetByID(ctx, id)
		}
		if tx, err := s.trx.GetByIdempotencyKey(ctx, m.idemKey); err == nil {
			return tx, nil
		} else if !errors.Is(err, repo.ErrNotFound) {
			return models.Transaction{}, err
		}
	}

	var created models.Transaction
	var replayed bool
	var recipientUserID string
	err := s.runner.WithTx(ctx, func(ctx context.Context) error {
		// Re-check the key inside the transaction: a concurrent request
		// may have committed between the pre-check above and here, and
		// applying the deltas again would double-move the funds.
		if m.idemKey != "" {
			prev, err := s.trx.GetByIdempotencyKey(ctx, m.idemKey)
			if err == nil {
				created, replayed = prev, true
				return nil
			}
			if !errors.Is(err, repo.ErrNotFound) {
				return err
			}
		}

		from, to, err := s.lockEndpoints(ctx, m.from, m.to)
		if err != nil {
			return err
		}

		// Restriction checks, in order. The owner of the debited side
		// initiates every movement; deposits are checked against the
		// credited side instead.
		if from != nil {
			if from.UserID != m.actor.ID {
				return ErrForbidden
			}
			if !from.CanSend() {
				return ErrAccountNotActive
			}
		} else if to != nil && to.UserID != m.actor.ID {
			return ErrForbidden
		}
		if to != nil && !to.CanReceive() {
			return ErrAccountNotActive
		}
		if from != nil && to != nil && from.Currency != to.Currency {
			return ErrCurrencyMismatch
		}
		if from != nil && from.Balance.LessThan(m.amount) {
			return ErrInsufficientFunds
		}
		if s.needsKYC(m) && m.actor.KYCStatus != models.KYCApproved {
			return ErrKYCRequired
		}
		if m.typ == models.TxnTransfer || m.typ == models.TxnP2P {
			sent, err := s.trx.SumOutgoingSince(ctx, *m.from, time.Now().Add(-24*time.Hour))
			if err != nil {
				return err
			}
			if sent.Add(m.amount).GreaterThan(s.dailyLimit) {
				return ErrDailyLimitExceeded
			}
		}

		currency := ""
		if from != nil {
			currency = from.Currency
			if _, err := s.acc.ApplyDelta(ctx, from.ID, m.amount.Neg()); err != nil {
				return err
			}
		}
		if to != nil {
			currency = to.Currency
			recipientUserID = to.UserID
			if _, err := s.acc.ApplyDelta(ctx, to.ID, m.amount); err != nil {
				return err
			}
		}

		row := models.Transaction{
			ID:            uuid.NewString(),
			Type:          m.typ,
			Status:        models.TxnCompleted,
			Amount:        m.amount,
			Currency:      currency,
			FromAccountID: m.from,
			ToAccountID:   m.to,
			CardID:        m.cardID,
			GoalID:        m.goalID,
			Description:   m.description,
		}
		if m.idemKey != "" {
			row.IdempotencyKey = &m.idemKey
		}
		if created, err = s.trx.Create(ctx, row); err != nil {
			return err
		}
		if created.ID != row.ID {
			// The insert resolved against an existing row for this key,
			// so this attempt's deltas must not commit.
			replayed = true
			return errKeyReplayed
		}
		return nil
	})
	if replayed {
		if m.idemKey != "" {
			s.idem.Store(ctx, m.idemKey, created.ID)
		}
		return created, nil
	}
	if err != nil {
		return models.Transaction{}, s.reject(m, err)
	}

	metrics.TransfersTotal.WithLabelValues(string(m.typ)).Inc()
	if m.idemKey != "" {
		s.idem.Store(ctx, m.idemKey, created.ID)
	}
	s.auditor.Record("transaction", created.ID, m.actor.ID, "transfer.completed", map[string]any{
		"type":     string(m.typ),
		"amount":   m.amount.String(),
		"currency": created.Currency,
	})
	if recipientUserID != "" && recipientUserID != m.actor.ID {
		if u, err := s.users.GetByID(ctx, recipientUserID); err == nil {
			s.notify.TransferReceived(u.Email, m.amount, created.Currency)
		}
	}
	return created, nil
}

// lockEndpoints takes row locks in id order so two concurrent
// transfers between the same accounts cannot deadlock.
func (s *TransferService) lockEndpoints(ctx context.Context, fromID, toID *string) (from, to *models.Account, err error) {
	var ids []string
	if fromID != nil {
		ids = append(ids, *fromID)
	}
	if toID != nil {
		ids = append(ids, *toID)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a, err := s.acc.GetForUpdate(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if fromID != nil && a.ID == *fromID {
			cp := a
			from = &cp
		}
		if toID != nil && a.ID == *toID {
			cp := a
			to = &cp
		}
	}
	return from, to, nil
}

func (s *TransferService) needsKYC(m moveReq) bool {
	if m.typ == models.TxnP2P {
		return true
	}
	return m.typ == models.TxnTransfer && m.amount.GreaterThan(s.kycExemptLimit)
}

func (s *TransferService) reject(m moveReq, err error) error {
	metrics.TransfersFailed.Inc()
	s.auditor.Record("transaction", "", m.actor.ID, "transfer.rejected", map[string]any{
		"type":   string(m.typ),
		"amount": m.amount.String(),
		"reason": err.Error(),
	})
	return err
}

// ----------------- Queries -----------------

func (s *TransferService) GetByID(ctx context.Context, actorID, actorRole, id string) (models.Transaction, error) {
	tx, err := s.trx.GetByID(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}
	if actorRole == "admin" {
		return tx, nil
	}
	for _, accID := range []*string{tx.FromAccountID, tx.ToAccountID} {
		if accID == nil {
			continue
		}
		a, err := s.acc.GetByID(ctx, *accID)
		if err == nil && a.UserID == actorID {
			return tx, nil
		}
	}
	return models.Transaction{}, ErrForbidden
}

func (s *TransferService) ListByAccount(ctx context.Context, actorID, actorRole, accountID string, limit, offset int) ([]models.Transaction, error) {
	if actorRole != "admin" {
		a, err := s.acc.GetByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if a.UserID != actorID {
			return nil, ErrForbidden
		}
	}
	return s.trx.ListByAccount(ctx, accountID, limit, offset)
}

func (s *TransferService) ListAll(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	return s.trx.ListAll(ctx, limit, offset)
}
