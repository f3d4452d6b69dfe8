package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CardStatus string

const (
	CardActive   CardStatus = "active"
	CardFrozen   CardStatus = "frozen"
	CardCanceled CardStatus = "canceled"
)

// VirtualCard stores only the masked PAN and last four digits; the full
// number and CVV are returned once at issue time and never persisted.
type VirtualCard struct {
	ID           string           `json:"id"`
	AccountID    string           `json:"account_id"`
	Label        string           `json:"label"`
	MaskedPAN    string           `json:"masked_pan"`
	Last4        string           `json:"last4"`
	ExpMonth     int              `json:"exp_month"`
	ExpYear      int              `json:"exp_year"`
	Status       CardStatus       `json:"status"`
	MonthlyLimit *decimal.Decimal `json:"monthly_limit,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
