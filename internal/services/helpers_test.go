package services

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/config"
	"github.com/solventa/solventa-backend/internal/models"
	"github.com/solventa/solventa-backend/internal/testutil/memrepo"
	"github.com/solventa/solventa-backend/internal/worker"
)

type testEnv struct {
	store *memrepo.Store
	pool  *worker.Pool
	audit *Auditor
	mail  *Notifier

	stopOnce sync.Once
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{store: memrepo.New(), pool: worker.NewPool(1)}
	e.audit = NewAuditor(e.store.Audit(), e.pool)
	e.mail = NewNotifier(LogMailer{}, e.pool)
	t.Cleanup(e.drain)
	return e
}

// drain flushes queued background jobs so audit rows can be asserted.
func (e *testEnv) drain() { e.stopOnce.Do(e.pool.Stop) }

func (e *testEnv) transferSvc() *TransferService {
	return NewTransferService(e.store.Runner(), e.store.Txns(), e.store.Accounts(),
		e.store.Users(), e.audit, e.mail, nil, testCfg())
}

func (e *testEnv) accountSvc() *AccountService {
	return NewAccountService(e.store.Accounts(), e.audit)
}

func (e *testEnv) userSvc() *UserService {
	return NewUserService(e.store.Runner(), e.store.Users(), e.store.Accounts(), e.audit, e.mail)
}

func (e *testEnv) cardSvc() *CardService {
	return NewCardService(e.store.Cards(), e.store.Txns(), e.store.Users(),
		e.accountSvc(), e.transferSvc(), e.audit, e.mail)
}

func (e *testEnv) goalSvc() *GoalService {
	return NewGoalService(e.store.Runner(), e.store.Goals(), e.store.Accounts(),
		e.store.Txns(), e.audit)
}

func (e *testEnv) kycSvc() *VerificationService {
	return NewVerificationService(e.store.Runner(), e.store.Verifications(),
		e.store.Users(), e.audit, e.mail)
}

func testCfg() config.Config {
	return config.Config{
		KYCExemptLimit:     decimal.NewFromInt(1000),
		DailyTransferLimit: decimal.NewFromInt(10000),
	}
}

func (e *testEnv) seedUser(email string, kyc models.KYCStatus) models.User {
	return e.store.SeedUser(models.User{Username: "tester", Email: email, KYCStatus: kyc})
}

func (e *testEnv) seedAccount(userID, balance, currency string) models.Account {
	return e.store.SeedAccount(models.Account{
		UserID:   userID,
		Balance:  decimal.RequireFromString(balance),
		Currency: currency,
	})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func wantBalance(t *testing.T, store *memrepo.Store, accountID, want string) {
	t.Helper()
	got := store.Account(accountID).Balance
	if !got.Equal(dec(want)) {
		t.Fatalf("account %s balance = %s, want %s", accountID, got, want)
	}
}
