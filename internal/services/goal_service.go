package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/metrics"
	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

// GoalService moves money between an account and its savings goals.
// Contributions and withdrawals are ledger movements like any other:
// account balance, goal balance and the transaction row change in one
// DB transaction.
type GoalService struct {
	runner  repo.TxRunner
	goals   repo.SavingsGoals
	acc     repo.Accounts
	trx     repo.Transactions
	auditor *Auditor
}

func NewGoalService(runner repo.TxRunner, goals repo.SavingsGoals, acc repo.Accounts, trx repo.Transactions, auditor *Auditor) *GoalService {
	return &GoalService{runner: runner, goals: goals, acc: acc, trx: trx, auditor: auditor}
}

func (s *GoalService) Create(ctx context.Context, userID, accountID, name string, target decimal.Decimal, targetDate *time.Time) (models.SavingsGoal, error) {
	if !target.IsPositive() {
		return models.SavingsGoal{}, ErrAmountNotPositive
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.SavingsGoal{}, errors.New("goal name required")
	}
	a, err := s.acc.GetByID(ctx, accountID)
	if err != nil {
		return models.SavingsGoal{}, err
	}
	if a.UserID != userID {
		return models.SavingsGoal{}, ErrForbidden
	}

	g, err := s.goals.Create(ctx, models.SavingsGoal{
		UserID:       userID,
		AccountID:    accountID,
		Name:         name,
		TargetAmount: target,
		TargetDate:   targetDate,
		Status:       models.GoalActive,
	})
	if err != nil {
		return models.SavingsGoal{}, err
	}
	s.auditor.Record("savings_goal", g.ID, userID, "goal.created", map[string]any{"target": target.String()})
	return g, nil
}

func (s *GoalService) List(ctx context.Context, userID string) ([]models.SavingsGoal, error) {
	return s.goals.ListByUser(ctx, userID)
}

func (s *GoalService) Get(ctx context.Context, userID, id string) (models.SavingsGoal, error) {
	g, err := s.goals.GetByID(ctx, id)
	if err != nil {
		return models.SavingsGoal{}, err
	}
	if g.UserID != userID {
		return models.SavingsGoal{}, ErrForbidden
	}
	return g, nil
}

// Contribute moves funds from the funding account into the goal.
func (s *GoalService) Contribute(ctx context.Context, userID, id string, amount decimal.Decimal) (models.SavingsGoal, error) {
	return s.moveGoal(ctx, userID, id, amount, models.TxnGoalContribution)
}

// Withdraw moves funds from the goal back to the funding account,
// capped at the saved amount.
func (s *GoalService) Withdraw(ctx context.Context, userID, id string, amount decimal.Decimal) (models.SavingsGoal, error) {
	return s.moveGoal(ctx, userID, id, amount, models.TxnGoalWithdrawal)
}

func (s *GoalService) moveGoal(ctx context.Context, userID, id string, amount decimal.Decimal, typ models.TransactionType) (models.SavingsGoal, error) {
	if !amount.IsPositive() {
		return models.SavingsGoal{}, ErrAmountNotPositive
	}

	var updated models.SavingsGoal
	err := s.runner.WithTx(ctx, func(ctx context.Context) error {
		g, err := s.goals.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if g.UserID != userID {
			return ErrForbidden
		}
		if g.Status == models.GoalCanceled {
			return ErrGoalNotActive
		}

		a, err := s.acc.GetForUpdate(ctx, g.AccountID)
		if err != nil {
			return err
		}
		if a.Status != models.AccountActive {
			return ErrAccountNotActive
		}

		delta := amount
		accDelta := amount.Neg()
		row := models.Transaction{
			Type:          typ,
			Status:        models.TxnCompleted,
			Amount:        amount,
			Currency:      a.Currency,
			FromAccountID: &g.AccountID,
			GoalID:        &g.ID,
			Description:   g.Name,
		}
		switch typ {
		case models.TxnGoalContribution:
			if a.Balance.LessThan(amount) {
				return ErrInsufficientFunds
			}
		case models.TxnGoalWithdrawal:
			if g.SavedAmount.LessThan(amount) {
				return ErrInsufficientFunds
			}
			delta = amount.Neg()
			accDelta = amount
			row.FromAccountID = nil
			row.ToAccountID = &g.AccountID
		}

		if _, err := s.acc.ApplyDelta(ctx, g.AccountID, accDelta); err != nil {
			return err
		}
		if updated, err = s.goals.ApplyDelta(ctx, g.ID, delta); err != nil {
			return err
		}
		if _, err := s.trx.Create(ctx, row); err != nil {
			return err
		}

		if typ == models.TxnGoalContribution &&
			updated.Status == models.GoalActive &&
			!updated.SavedAmount.LessThan(updated.TargetAmount) {
			if err := s.goals.SetStatus(ctx, updated.ID, models.GoalCompleted); err != nil {
				return err
			}
			updated.Status = models.GoalCompleted
		}
		return nil
	})
	if err != nil {
		metrics.TransfersFailed.Inc()
		return models.SavingsGoal{}, err
	}

	metrics.TransfersTotal.WithLabelValues(string(typ)).Inc()
	s.auditor.Record("savings_goal", updated.ID, userID, "goal."+string(typ), map[string]any{"amount": amount.String()})
	return updated, nil
}

// Cancel returns the remaining saved amount to the funding account.
func (s *GoalService) Cancel(ctx context.Context, userID, id string) (models.SavingsGoal, error) {
	var out models.SavingsGoal
	err := s.runner.WithTx(ctx, func(ctx context.Context) error {
		g, err := s.goals.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if g.UserID != userID {
			return ErrForbidden
		}
		if g.Status == models.GoalCanceled {
			return ErrGoalNotActive
		}

		if g.SavedAmount.IsPositive() {
			a, err := s.acc.GetForUpdate(ctx, g.AccountID)
			if err != nil {
				return err
			}
			if a.Status != models.AccountActive {
				return ErrAccountNotActive
			}
			if _, err := s.acc.ApplyDelta(ctx, g.AccountID, g.SavedAmount); err != nil {
				return err
			}
			if _, err = s.goals.ApplyDelta(ctx, g.ID, g.SavedAmount.Neg()); err != nil {
				return err
			}
			row := models.Transaction{
				Type:        models.TxnGoalWithdrawal,
				Status:      models.TxnCompleted,
				Amount:      g.SavedAmount,
				Currency:    a.Currency,
				ToAccountID: &g.AccountID,
				GoalID:      &g.ID,
				Description: g.Name + " (canceled)",
			}
			if _, err := s.trx.Create(ctx, row); err != nil {
				return err
			}
		}
		if err := s.goals.SetStatus(ctx, g.ID, models.GoalCanceled); err != nil {
			return err
		}
		out, err = s.goals.GetByID(ctx, g.ID)
		return err
	})
	if err != nil {
		return models.SavingsGoal{}, err
	}
	s.auditor.Record("savings_goal", out.ID, userID, "goal.canceled", nil)
	return out, nil
}
