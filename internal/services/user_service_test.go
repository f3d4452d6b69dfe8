package services

import (
	"context"
	"errors"
	"testing"

	"github.com/solventa/solventa-backend/internal/models"
)

func TestRegisterCreatesDefaultAccount(t *testing.T) {
	e := newTestEnv(t)
	svc := e.userSvc()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "Alice@Example.com ", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email = %q, want normalized lowercase", u.Email)
	}
	if u.Role != "user" || u.KYCStatus != models.KYCUnverified {
		t.Fatalf("defaults: %+v", u)
	}
	if u.PasswordHash == "s3cret-pass" {
		t.Fatal("password stored in plain text")
	}

	accounts, err := e.store.Accounts().ListByUser(ctx, u.ID)
	if err != nil || len(accounts) != 1 {
		t.Fatalf("accounts = %d, %v; want exactly one", len(accounts), err)
	}
	a := accounts[0]
	if a.Currency != "USD" || a.Status != models.AccountActive || len(a.Number) != 12 {
		t.Fatalf("default account: %+v", a)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newTestEnv(t)
	svc := e.userSvc()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret-pass"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice2", "ALICE@example.com", "s3cret-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEnv(t)
	svc := e.userSvc()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "al", "alice@example.com", "s3cret-pass"); err == nil {
		t.Fatal("expected error for short username")
	}
	if _, err := svc.Register(ctx, "alice", "not-an-email", "s3cret-pass"); err == nil {
		t.Fatal("expected error for invalid email")
	}
}

func TestAuthenticate(t *testing.T) {
	e := newTestEnv(t)
	svc := e.userSvc()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := svc.Authenticate(ctx, "alice@example.com", "s3cret-pass")
	if err != nil || got.ID != u.ID {
		t.Fatalf("Authenticate = %+v, %v", got, err)
	}

	if _, err := svc.Authenticate(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password = %v, want ErrInvalidCredentials", err)
	}
	// unknown emails get the same error, not a not-found leak
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email = %v, want ErrInvalidCredentials", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	e := newTestEnv(t)
	svc := e.userSvc()
	ctx := context.Background()

	u, _ := svc.Register(ctx, "alice", "alice@example.com", "s3cret-pass")
	got, err := svc.UpdateProfile(ctx, u.ID, "alice-renamed")
	if err != nil || got.Username != "alice-renamed" {
		t.Fatalf("UpdateProfile = %+v, %v", got, err)
	}
	if _, err := svc.UpdateProfile(ctx, u.ID, "ab"); err == nil {
		t.Fatal("expected error for short username")
	}
}
