package services

import "errors"

var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")

	ErrAmountNotPositive  = errors.New("amount must be > 0")
	ErrSameAccount        = errors.New("cannot transfer to same account")
	ErrAccountNotActive   = errors.New("account is not active")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrKYCRequired        = errors.New("identity verification required")
	ErrDailyLimitExceeded = errors.New("daily transfer limit exceeded")
	ErrBalanceNotZero     = errors.New("account balance must be zero")

	ErrTooManyCards      = errors.New("active card limit reached")
	ErrCardNotActive     = errors.New("card is not active")
	ErrCardLimitExceeded = errors.New("card monthly limit exceeded")

	ErrOpenVerification = errors.New("verification request already pending")
	ErrGoalNotActive    = errors.New("savings goal is not active")
)
