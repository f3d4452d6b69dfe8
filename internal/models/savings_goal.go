package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCanceled  GoalStatus = "canceled"
)

type SavingsGoal struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	AccountID    string          `json:"account_id"` // funding account
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
	TargetDate   *time.Time      `json:"target_date,omitempty"`
	Status       GoalStatus      `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Progress is the saved/target ratio in percent, capped at 100.
func (g *SavingsGoal) Progress() float64 {
	if g.TargetAmount.IsZero() {
		return 0
	}
	p, _ := g.SavedAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
	if p > 100 {
		return 100
	}
	return p
}
