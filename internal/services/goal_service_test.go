package services

import (
	"context"
	"errors"
	"testing"

	"github.com/solventa/solventa-backend/internal/models"
)

func TestGoalContributeAndComplete(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	acc := e.seedAccount(alice.ID, "100", "USD")
	svc := e.goalSvc()
	ctx := context.Background()

	g, err := svc.Create(ctx, alice.ID, acc.ID, "Vacation", dec("50"), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.Status != models.GoalActive || !g.SavedAmount.IsZero() {
		t.Fatalf("new goal: %+v", g)
	}

	g, err = svc.Contribute(ctx, alice.ID, g.ID, dec("30"))
	if err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if !g.SavedAmount.Equal(dec("30")) || g.Status != models.GoalActive {
		t.Fatalf("after first contribution: %+v", g)
	}
	wantBalance(t, e.store, acc.ID, "70")

	// crossing the target completes the goal
	g, err = svc.Contribute(ctx, alice.ID, g.ID, dec("25"))
	if err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if g.Status != models.GoalCompleted || !g.SavedAmount.Equal(dec("55")) {
		t.Fatalf("after completion: %+v", g)
	}
	wantBalance(t, e.store, acc.ID, "45")

	if p := g.Progress(); p != 100 {
		t.Fatalf("progress = %v, want capped at 100", p)
	}
}

func TestGoalContributeInsufficientFunds(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	acc := e.seedAccount(alice.ID, "10", "USD")
	svc := e.goalSvc()
	ctx := context.Background()

	g, _ := svc.Create(ctx, alice.ID, acc.ID, "Bike", dec("500"), nil)
	if _, err := svc.Contribute(ctx, alice.ID, g.ID, dec("50")); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
	wantBalance(t, e.store, acc.ID, "10")
}

func TestGoalWithdraw(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	acc := e.seedAccount(alice.ID, "100", "USD")
	svc := e.goalSvc()
	ctx := context.Background()

	g, _ := svc.Create(ctx, alice.ID, acc.ID, "Rainy day", dec("200"), nil)
	if _, err := svc.Contribute(ctx, alice.ID, g.ID, dec("60")); err != nil {
		t.Fatalf("Contribute: %v", err)
	}

	g, err := svc.Withdraw(ctx, alice.ID, g.ID, dec("20"))
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !g.SavedAmount.Equal(dec("40")) {
		t.Fatalf("saved = %s, want 40", g.SavedAmount)
	}
	wantBalance(t, e.store, acc.ID, "60")

	// cannot withdraw more than saved
	if _, err := svc.Withdraw(ctx, alice.ID, g.ID, dec("100")); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
}

func TestGoalCancelReturnsFunds(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	acc := e.seedAccount(alice.ID, "100", "USD")
	svc := e.goalSvc()
	ctx := context.Background()

	g, _ := svc.Create(ctx, alice.ID, acc.ID, "Laptop", dec("500"), nil)
	if _, err := svc.Contribute(ctx, alice.ID, g.ID, dec("80")); err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	wantBalance(t, e.store, acc.ID, "20")

	g, err := svc.Cancel(ctx, alice.ID, g.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if g.Status != models.GoalCanceled || !g.SavedAmount.IsZero() {
		t.Fatalf("after cancel: %+v", g)
	}
	wantBalance(t, e.store, acc.ID, "100")

	// canceled goals take no further movements
	if _, err := svc.Contribute(ctx, alice.ID, g.ID, dec("5")); !errors.Is(err, ErrGoalNotActive) {
		t.Fatalf("got %v, want ErrGoalNotActive", err)
	}
	if _, err := svc.Cancel(ctx, alice.ID, g.ID); !errors.Is(err, ErrGoalNotActive) {
		t.Fatalf("second cancel = %v, want ErrGoalNotActive", err)
	}
}

func TestGoalCancelFrozenAccount(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	acc := e.seedAccount(alice.ID, "100", "USD")
	svc := e.goalSvc()
	ctx := context.Background()

	g, _ := svc.Create(ctx, alice.ID, acc.ID, "Camera", dec("500"), nil)
	if _, err := svc.Contribute(ctx, alice.ID, g.ID, dec("40")); err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	wantBalance(t, e.store, acc.ID, "60")

	// a frozen account cannot receive the returned funds
	if err := e.store.Accounts().SetStatus(ctx, acc.ID, models.AccountFrozen); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if _, err := svc.Cancel(ctx, alice.ID, g.ID); !errors.Is(err, ErrAccountNotActive) {
		t.Fatalf("got %v, want ErrAccountNotActive", err)
	}
	wantBalance(t, e.store, acc.ID, "60")
	g, err := svc.Get(ctx, alice.ID, g.ID)
	if err != nil || g.Status != models.GoalActive || !g.SavedAmount.Equal(dec("40")) {
		t.Fatalf("goal after blocked cancel: %+v, %v", g, err)
	}

	if err := e.store.Accounts().SetStatus(ctx, acc.ID, models.AccountActive); err != nil {
		t.Fatalf("unfreeze: %v", err)
	}
	if g, err = svc.Cancel(ctx, alice.ID, g.ID); err != nil || g.Status != models.GoalCanceled {
		t.Fatalf("cancel after unfreeze: %+v, %v", g, err)
	}
	wantBalance(t, e.store, acc.ID, "100")
}

func TestGoalOwnership(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	bob := e.seedUser("bob@example.com", models.KYCUnverified)
	acc := e.seedAccount(alice.ID, "100", "USD")
	svc := e.goalSvc()
	ctx := context.Background()

	g, _ := svc.Create(ctx, alice.ID, acc.ID, "Secret", dec("10"), nil)
	if _, err := svc.Get(ctx, bob.ID, g.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Get = %v, want ErrForbidden", err)
	}
	if _, err := svc.Contribute(ctx, bob.ID, g.ID, dec("1")); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Contribute = %v, want ErrForbidden", err)
	}
	if _, err := svc.Create(ctx, bob.ID, acc.ID, "Theirs", dec("10"), nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Create on foreign account = %v, want ErrForbidden", err)
	}
}

func TestGoalRecordsLedgerRows(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	acc := e.seedAccount(alice.ID, "100", "USD")
	svc := e.goalSvc()
	ctx := context.Background()

	g, _ := svc.Create(ctx, alice.ID, acc.ID, "Car", dec("1000"), nil)
	if _, err := svc.Contribute(ctx, alice.ID, g.ID, dec("40")); err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if _, err := svc.Withdraw(ctx, alice.ID, g.ID, dec("15")); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	txs := e.store.Transactions()
	if len(txs) != 2 {
		t.Fatalf("ledger has %d rows, want 2", len(txs))
	}
	if txs[0].Type != models.TxnGoalContribution || txs[0].GoalID == nil || *txs[0].GoalID != g.ID {
		t.Fatalf("contribution row: %+v", txs[0])
	}
	if txs[1].Type != models.TxnGoalWithdrawal || txs[1].ToAccountID == nil || *txs[1].ToAccountID != acc.ID {
		t.Fatalf("withdrawal row: %+v", txs[1])
	}
}
