package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestTM() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", "test-issuer", 15*time.Minute, time.Hour)
}

func TestGenerateAndParsePair(t *testing.T) {
	tm := newTestTM()

	access, refresh, exp, err := tm.GeneratePair("user-1", "admin")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("access expiry %v is not in the future", exp)
	}

	claims, isRefresh, err := tm.ParseAny(access)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if isRefresh {
		t.Fatal("access token reported as refresh")
	}
	if claims.UserID != "user-1" || claims.Role != "admin" || claims.Issuer != "test-issuer" {
		t.Fatalf("claims: %+v", claims)
	}

	claims, isRefresh, err = tm.ParseAny(refresh)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if !isRefresh {
		t.Fatal("refresh token not reported as refresh")
	}
	if claims.UserID != "user-1" {
		t.Fatalf("refresh claims: %+v", claims)
	}
}

func TestParseAnyRejectsGarbage(t *testing.T) {
	tm := newTestTM()
	for _, tok := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		if _, _, err := tm.ParseAny(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("ParseAny(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestParseAnyRejectsForeignSecret(t *testing.T) {
	tm := newTestTM()
	other := NewTokenManager("other-access", "other-refresh", "test-issuer", time.Minute, time.Hour)

	access, refresh, _, err := other.GeneratePair("user-1", "user")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	if _, _, err := tm.ParseAny(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign access token = %v, want ErrInvalidToken", err)
	}
	if _, _, err := tm.ParseAny(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign refresh token = %v, want ErrInvalidToken", err)
	}
}

func TestParseAnyRejectsExpired(t *testing.T) {
	tm := NewTokenManager("access-secret", "refresh-secret", "test-issuer", -time.Minute, -time.Minute)
	access, _, _, err := tm.GeneratePair("user-1", "user")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	if _, _, err := tm.ParseAny(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token = %v, want ErrInvalidToken", err)
	}
}
