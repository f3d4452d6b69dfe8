package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxnDeposit          TransactionType = "deposit"
	TxnWithdrawal       TransactionType = "withdrawal"
	TxnTransfer         TransactionType = "transfer"
	TxnP2P              TransactionType = "p2p"
	TxnCardPayment      TransactionType = "card_payment"
	TxnGoalContribution TransactionType = "goal_contribution"
	TxnGoalWithdrawal   TransactionType = "goal_withdrawal"
)

type TransactionStatus string

const (
	TxnCompleted TransactionStatus = "completed"
	TxnFailed    TransactionStatus = "failed"
)

// Transaction is an immutable ledger record. Rows are written once,
// inside the same DB transaction as the balance movement they describe.
type Transaction struct {
	ID             string            `json:"id"`
	Type           TransactionType   `json:"type"`
	Status         TransactionStatus `json:"status"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	FromAccountID  *string           `json:"from_account_id,omitempty"`
	ToAccountID    *string           `json:"to_account_id,omitempty"`
	CardID         *string           `json:"card_id,omitempty"`
	GoalID         *string           `json:"goal_id,omitempty"`
	Description    string            `json:"description,omitempty"`
	IdempotencyKey *string           `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
}
