package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/solventa/solventa-backend/internal/api/handlers"
	"github.com/solventa/solventa-backend/internal/auth"
	"github.com/solventa/solventa-backend/internal/config"
	"github.com/solventa/solventa-backend/internal/models"
	"github.com/solventa/solventa-backend/internal/services"
	"github.com/solventa/solventa-backend/internal/testutil/memrepo"
	"github.com/solventa/solventa-backend/internal/worker"
)

type testServer struct {
	srv   *httptest.Server
	store *memrepo.Store
	tm    *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memrepo.New()
	wp := worker.NewPool(1)
	t.Cleanup(wp.Stop)

	cfg := config.Load()
	auditor := services.NewAuditor(store.Audit(), wp)
	notify := services.NewNotifier(services.LogMailer{}, wp)

	userSvc := services.NewUserService(store.Runner(), store.Users(), store.Accounts(), auditor, notify)
	accountSvc := services.NewAccountService(store.Accounts(), auditor)
	transferSvc := services.NewTransferService(store.Runner(), store.Txns(), store.Accounts(), store.Users(), auditor, notify, nil, cfg)
	cardSvc := services.NewCardService(store.Cards(), store.Txns(), store.Users(), accountSvc, transferSvc, auditor, notify)
	goalSvc := services.NewGoalService(store.Runner(), store.Goals(), store.Accounts(), store.Txns(), auditor)
	kycSvc := services.NewVerificationService(store.Runner(), store.Verifications(), store.Users(), auditor, notify)

	tm := auth.NewTokenManager("test-access", "test-refresh", "test", 15*time.Minute, time.Hour)

	r := NewRouter(Deps{
		Cfg:       cfg,
		TM:        tm,
		Auth:      handlers.NewAuthHandler(userSvc, tm),
		Accounts:  handlers.NewAccountsHandler(accountSvc),
		Transfers: handlers.NewTransfersHandler(transferSvc),
		Cards:     handlers.NewCardsHandler(cardSvc),
		Goals:     handlers.NewGoalsHandler(goalSvc),
		KYC:       handlers.NewKYCHandler(kycSvc),
		Admin:     handlers.NewAdminHandler(userSvc, accountSvc, transferSvc, kycSvc, store.Audit()),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, store: store, tm: tm}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/health", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRegisterLoginAndMe(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	tok := decodeBody[tokens](t, resp)
	if tok.AccessToken == "" || tok.RefreshToken == "" || tok.ExpiresIn <= 0 {
		t.Fatalf("tokens: %+v", tok)
	}

	// no token
	resp = ts.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// refresh tokens cannot be used as access tokens
	resp = ts.do(t, http.MethodGet, "/api/v1/users/me", tok.RefreshToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh-as-access status = %d, want 401", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodGet, "/api/v1/users/me", tok.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d, want 200", resp.StatusCode)
	}
	me := decodeBody[models.User](t, resp)
	if me.Email != "alice@example.com" {
		t.Fatalf("me = %+v", me)
	}
}

func TestRefreshRotation(t *testing.T) {
	ts := newTestServer(t)
	u := ts.store.SeedUser(models.User{Username: "alice", Email: "alice@example.com"})
	_, refresh, _, err := ts.tm.GeneratePair(u.ID, u.Role)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	resp := ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d, want 200", resp.StatusCode)
	}
	tok := decodeBody[tokens](t, resp)
	if tok.AccessToken == "" {
		t.Fatal("no access token from refresh")
	}

	// an access token is not accepted as a refresh token
	resp = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": tok.AccessToken})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("access-as-refresh status = %d, want 401", resp.StatusCode)
	}
}

func TestDepositFlowWithIdempotencyKey(t *testing.T) {
	ts := newTestServer(t)
	u := ts.store.SeedUser(models.User{Username: "alice", Email: "alice@example.com"})
	acc := ts.store.SeedAccount(models.Account{UserID: u.ID})
	access, _, _, err := ts.tm.GeneratePair(u.ID, u.Role)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	deposit := func() models.Transaction {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(map[string]string{"account_id": acc.ID, "amount": "100"})
		req, _ := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/v1/transfers/deposit", &buf)
		req.Header.Set("Authorization", "Bearer "+access)
		req.Header.Set("Idempotency-Key", "dep-1")
		resp, err := ts.srv.Client().Do(req)
		if err != nil {
			t.Fatalf("deposit: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("deposit status = %d, want 201", resp.StatusCode)
		}
		return decodeBody[models.Transaction](t, resp)
	}

	first := deposit()
	second := deposit()
	if second.ID != first.ID {
		t.Fatalf("replay created a new transaction: %s vs %s", second.ID, first.ID)
	}
	if got := ts.store.Account(acc.ID).Balance; !got.Equal(first.Amount) {
		t.Fatalf("balance = %s, want %s", got, first.Amount)
	}
}

func TestTransferValidationError(t *testing.T) {
	ts := newTestServer(t)
	u := ts.store.SeedUser(models.User{Username: "alice", Email: "alice@example.com"})
	access, _, _, err := ts.tm.GeneratePair(u.ID, u.Role)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	resp := ts.do(t, http.MethodPost, "/api/v1/transfers", access, map[string]string{
		"from_account_id": "", "to_account_id": "", "amount": "-1",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAdminRoutesRequireRole(t *testing.T) {
	ts := newTestServer(t)
	user := ts.store.SeedUser(models.User{Username: "alice", Email: "alice@example.com"})
	admin := ts.store.SeedUser(models.User{Username: "root", Email: "admin@example.com", Role: "admin"})

	userTok, _, _, _ := ts.tm.GeneratePair(user.ID, user.Role)
	adminTok, _, _, _ := ts.tm.GeneratePair(admin.ID, admin.Role)

	resp := ts.do(t, http.MethodGet, "/api/v1/admin/users", userTok, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user on admin route = %d, want 403", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodGet, "/api/v1/admin/users", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin list users = %d, want 200", resp.StatusCode)
	}
	users := decodeBody[[]models.User](t, resp)
	if len(users) != 2 {
		t.Fatalf("listed %d users, want 2", len(users))
	}
}

func TestAdminKYCReviewFlow(t *testing.T) {
	ts := newTestServer(t)
	user := ts.store.SeedUser(models.User{Username: "alice", Email: "alice@example.com"})
	admin := ts.store.SeedUser(models.User{Username: "root", Email: "admin@example.com", Role: "admin"})

	userTok, _, _, _ := ts.tm.GeneratePair(user.ID, user.Role)
	adminTok, _, _, _ := ts.tm.GeneratePair(admin.ID, admin.Role)

	resp := ts.do(t, http.MethodPost, "/api/v1/kyc", userTok, map[string]string{
		"document_type": "passport", "document_number": "P-1", "country": "DE",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201", resp.StatusCode)
	}
	req := decodeBody[models.VerificationRequest](t, resp)

	resp = ts.do(t, http.MethodPost, "/api/v1/admin/kyc/"+req.ID+"/approve", adminTok, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("approve status = %d, want 204", resp.StatusCode)
	}

	if got := ts.store.User(user.ID).KYCStatus; got != models.KYCApproved {
		t.Fatalf("user KYC status = %s, want approved", got)
	}
}
