package services

import (
	"context"
	"errors"
	"testing"

	"github.com/solventa/solventa-backend/internal/models"
)

func TestNewAccountNumber(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		n := NewAccountNumber()
		if len(n) != 12 {
			t.Fatalf("number %q, want 12 digits", n)
		}
		for _, c := range n {
			if c < '0' || c > '9' {
				t.Fatalf("number %q contains non-digit", n)
			}
		}
		seen[n] = true
	}
	if len(seen) < 2 {
		t.Fatal("numbers are not random")
	}
}

func TestOpenAccount(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	svc := e.accountSvc()
	ctx := context.Background()

	a, err := svc.Open(ctx, alice.ID, "  Savings ", "eur")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if a.Name != "Savings" || a.Currency != "EUR" || a.Status != models.AccountActive {
		t.Fatalf("account: %+v", a)
	}

	// blanks fall back to defaults
	a, err = svc.Open(ctx, alice.ID, "", "")
	if err != nil || a.Name != "Account" || a.Currency != "USD" {
		t.Fatalf("defaults: %+v, %v", a, err)
	}

	if _, err := svc.Open(ctx, alice.ID, "x", "EURO"); err == nil {
		t.Fatal("expected error for 4-letter currency code")
	}
}

func TestGetAccountOwnership(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	bob := e.seedUser("bob@example.com", models.KYCUnverified)
	acc := e.seedAccount(alice.ID, "0", "USD")
	svc := e.accountSvc()
	ctx := context.Background()

	if _, err := svc.Get(ctx, alice.ID, acc.ID); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := svc.Get(ctx, bob.ID, acc.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
}

func TestCloseAccount(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	funded := e.seedAccount(alice.ID, "10", "USD")
	empty := e.seedAccount(alice.ID, "0", "USD")
	svc := e.accountSvc()
	ctx := context.Background()

	if err := svc.Close(ctx, alice.ID, funded.ID); !errors.Is(err, ErrBalanceNotZero) {
		t.Fatalf("got %v, want ErrBalanceNotZero", err)
	}
	if err := svc.Close(ctx, alice.ID, empty.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := e.store.Account(empty.ID).Status; got != models.AccountClosed {
		t.Fatalf("status = %s, want closed", got)
	}
}

func TestFreezeBlocksTransfers(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedUser("alice@example.com", models.KYCUnverified)
	admin := e.seedUser("admin@example.com", models.KYCApproved)
	bob := e.seedUser("bob@example.com", models.KYCUnverified)
	from := e.seedAccount(alice.ID, "100", "USD")
	to := e.seedAccount(bob.ID, "0", "USD")
	accounts := e.accountSvc()
	transfers := e.transferSvc()
	ctx := context.Background()

	if err := accounts.SetStatus(ctx, admin.ID, from.ID, models.AccountFrozen); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if _, err := transfers.Transfer(ctx, alice.ID, from.ID, to.ID, dec("1"), "", ""); !errors.Is(err, ErrAccountNotActive) {
		t.Fatalf("got %v, want ErrAccountNotActive", err)
	}

	if err := accounts.SetStatus(ctx, admin.ID, from.ID, models.AccountActive); err != nil {
		t.Fatalf("unfreeze: %v", err)
	}
	if _, err := transfers.Transfer(ctx, alice.ID, from.ID, to.ID, dec("1"), "", ""); err != nil {
		t.Fatalf("transfer after unfreeze: %v", err)
	}
}
