// Package memrepo provides in-memory repository implementations for
// tests. Behavior mirrors the postgres package closely enough for
// service-level tests to run without a database.
package memrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

type Store struct {
	mu       sync.Mutex
	users    map[string]models.User
	accounts map[string]models.Account
	txns     []models.Transaction
	cards    map[string]models.VirtualCard
	goals    map[string]models.SavingsGoal
	vers     map[string]models.VerificationRequest
	logs     []models.AuditLog
}

func New() *Store {
	return &Store{
		users:    map[string]models.User{},
		accounts: map[string]models.Account{},
		cards:    map[string]models.VirtualCard{},
		goals:    map[string]models.SavingsGoal{},
		vers:     map[string]models.VerificationRequest{},
	}
}

// ----------------- seeding and assertions -----------------

func (s *Store) SeedUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = "user"
	}
	if u.KYCStatus == "" {
		u.KYCStatus = models.KYCUnverified
	}
	s.users[u.ID] = u
	return u
}

func (s *Store) SeedAccount(a models.Account) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.AccountActive
	}
	if a.Currency == "" {
		a.Currency = "USD"
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.accounts[a.ID] = a
	return a
}

func (s *Store) Account(id string) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id]
}

func (s *Store) User(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *Store) Goal(id string) models.SavingsGoal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goals[id]
}

func (s *Store) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, len(s.txns))
	copy(out, s.txns)
	return out
}

func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// ----------------- repository accessors -----------------

func (s *Store) Runner() repo.TxRunner             { return runner{s} }
func (s *Store) Users() repo.Users                 { return usersRepo{s} }
func (s *Store) Accounts() repo.Accounts           { return accountsRepo{s} }
func (s *Store) Txns() repo.Transactions           { return txnsRepo{s} }
func (s *Store) Cards() repo.Cards                 { return cardsRepo{s} }
func (s *Store) Goals() repo.SavingsGoals          { return goalsRepo{s} }
func (s *Store) Verifications() repo.Verifications { return versRepo{s} }
func (s *Store) Audit() repo.AuditLogs             { return auditRepo{s} }

// runner has no real transactionality; tests exercise the sequencing,
// not isolation.
type runner struct{ s *Store }

func (r runner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// IdemMap is an in-process IdemCache for tests.
type IdemMap struct {
	mu sync.Mutex
	m  map[string]string
}

func NewIdemMap() *IdemMap { return &IdemMap{m: map[string]string{}} }

func (i *IdemMap) Lookup(_ context.Context, key string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.m[key]
	return v, ok
}

func (i *IdemMap) Store(_ context.Context, key, txID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.m[key] = txID
}

// ----------------- users -----------------

type usersRepo struct{ s *Store }

func (r usersRepo) Create(_ context.Context, username, email, passwordHash, role string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		KYCStatus:    models.KYCUnverified,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.s.users[u.ID] = u
	return u, nil
}

func (r usersRepo) GetByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r usersRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repo.ErrNotFound
}

func (r usersRepo) List(_ context.Context, limit, offset int) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.User
	for _, u := range r.s.users {
		out = append(out, u)
	}
	return out, nil
}

func (r usersRepo) UpdateProfile(_ context.Context, id, username string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Username = username
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

func (r usersRepo) SetKYCStatus(_ context.Context, id string, status models.KYCStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.KYCStatus = status
	r.s.users[id] = u
	return nil
}

// ----------------- accounts -----------------

type accountsRepo struct{ s *Store }

func (r accountsRepo) Create(_ context.Context, a models.Account) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.s.accounts[a.ID] = a
	return a, nil
}

func (r accountsRepo) GetByID(_ context.Context, id string) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return models.Account{}, repo.ErrNotFound
	}
	return a, nil
}

func (r accountsRepo) GetForUpdate(ctx context.Context, id string) (models.Account, error) {
	return r.GetByID(ctx, id)
}

func (r accountsRepo) GetPrimaryByUser(_ context.Context, userID string) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best models.Account
	found := false
	for _, a := range r.s.accounts {
		if a.UserID != userID || a.Status != models.AccountActive {
			continue
		}
		if !found || a.CreatedAt.Before(best.CreatedAt) {
			best = a
			found = true
		}
	}
	if !found {
		return models.Account{}, repo.ErrNotFound
	}
	return best, nil
}

func (r accountsRepo) ListByUser(_ context.Context, userID string) ([]models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Account
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r accountsRepo) ApplyDelta(_ context.Context, id string, delta decimal.Decimal) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return models.Account{}, repo.ErrNotFound
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now()
	r.s.accounts[id] = a
	return a, nil
}

func (r accountsRepo) SetStatus(_ context.Context, id string, status models.AccountStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.Status = status
	r.s.accounts[id] = a
	return nil
}

// ----------------- transactions -----------------

type txnsRepo struct{ s *Store }

func (r txnsRepo) Create(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tx.IdempotencyKey != nil {
		for _, old := range r.s.txns {
			if old.IdempotencyKey != nil && *old.IdempotencyKey == *tx.IdempotencyKey {
				return old, nil
			}
		}
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	tx.CreatedAt = time.Now()
	r.s.txns = append(r.s.txns, tx)
	return tx, nil
}

func (r txnsRepo) GetByID(_ context.Context, id string) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tx := range r.s.txns {
		if tx.ID == id {
			return tx, nil
		}
	}
	return models.Transaction{}, repo.ErrNotFound
}

func (r txnsRepo) GetByIdempotencyKey(_ context.Context, key string) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tx := range r.s.txns {
		if tx.IdempotencyKey != nil && *tx.IdempotencyKey == key {
			return tx, nil
		}
	}
	return models.Transaction{}, repo.ErrNotFound
}

func (r txnsRepo) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Transaction
	for _, tx := range r.s.txns {
		if (tx.FromAccountID != nil && *tx.FromAccountID == accountID) ||
			(tx.ToAccountID != nil && *tx.ToAccountID == accountID) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r txnsRepo) ListAll(_ context.Context, limit, offset int) ([]models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Transaction, len(r.s.txns))
	copy(out, r.s.txns)
	return out, nil
}

func (r txnsRepo) SumOutgoingSince(_ context.Context, accountID string, since time.Time) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, tx := range r.s.txns {
		if tx.FromAccountID != nil && *tx.FromAccountID == accountID &&
			tx.Status == models.TxnCompleted && !tx.CreatedAt.Before(since) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (r txnsRepo) SumByCardSince(_ context.Context, cardID string, since time.Time) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, tx := range r.s.txns {
		if tx.CardID != nil && *tx.CardID == cardID &&
			tx.Status == models.TxnCompleted && !tx.CreatedAt.Before(since) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

// ----------------- cards -----------------

type cardsRepo struct{ s *Store }

func (r cardsRepo) Create(_ context.Context, c models.VirtualCard) (models.VirtualCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.s.cards[c.ID] = c
	return c, nil
}

func (r cardsRepo) GetByID(_ context.Context, id string) (models.VirtualCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok {
		return models.VirtualCard{}, repo.ErrNotFound
	}
	return c, nil
}

func (r cardsRepo) ListByAccount(_ context.Context, accountID string) ([]models.VirtualCard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.VirtualCard
	for _, c := range r.s.cards {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r cardsRepo) CountActiveByAccount(_ context.Context, accountID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.cards {
		if c.AccountID == accountID && c.Status == models.CardActive {
			n++
		}
	}
	return n, nil
}

func (r cardsRepo) SetStatus(_ context.Context, id string, status models.CardStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok {
		return repo.ErrNotFound
	}
	c.Status = status
	r.s.cards[id] = c
	return nil
}

func (r cardsRepo) SetMonthlyLimit(_ context.Context, id string, limit *decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cards[id]
	if !ok {
		return repo.ErrNotFound
	}
	c.MonthlyLimit = limit
	r.s.cards[id] = c
	return nil
}

// ----------------- savings goals -----------------

type goalsRepo struct{ s *Store }

func (r goalsRepo) Create(_ context.Context, g models.SavingsGoal) (models.SavingsGoal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.SavedAmount = decimal.Zero
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	r.s.goals[g.ID] = g
	return g, nil
}

func (r goalsRepo) GetByID(_ context.Context, id string) (models.SavingsGoal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.goals[id]
	if !ok {
		return models.SavingsGoal{}, repo.ErrNotFound
	}
	return g, nil
}

func (r goalsRepo) ListByUser(_ context.Context, userID string) ([]models.SavingsGoal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.SavingsGoal
	for _, g := range r.s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r goalsRepo) ApplyDelta(_ context.Context, id string, delta decimal.Decimal) (models.SavingsGoal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.goals[id]
	if !ok {
		return models.SavingsGoal{}, repo.ErrNotFound
	}
	g.SavedAmount = g.SavedAmount.Add(delta)
	g.UpdatedAt = time.Now()
	r.s.goals[id] = g
	return g, nil
}

func (r goalsRepo) SetStatus(_ context.Context, id string, status models.GoalStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.goals[id]
	if !ok {
		return repo.ErrNotFound
	}
	g.Status = status
	r.s.goals[id] = g
	return nil
}

// ----------------- verifications -----------------

type versRepo struct{ s *Store }

func (r versRepo) Create(_ context.Context, v models.VerificationRequest) (models.VerificationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.CreatedAt = time.Now()
	r.s.vers[v.ID] = v
	return v, nil
}

func (r versRepo) GetByID(_ context.Context, id string) (models.VerificationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vers[id]
	if !ok {
		return models.VerificationRequest{}, repo.ErrNotFound
	}
	return v, nil
}

func (r versRepo) LatestByUser(_ context.Context, userID string) (models.VerificationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best models.VerificationRequest
	found := false
	for _, v := range r.s.vers {
		if v.UserID != userID {
			continue
		}
		if !found || v.CreatedAt.After(best.CreatedAt) {
			best = v
			found = true
		}
	}
	if !found {
		return models.VerificationRequest{}, repo.ErrNotFound
	}
	return best, nil
}

func (r versRepo) ListPending(_ context.Context, limit, offset int) ([]models.VerificationRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.VerificationRequest
	for _, v := range r.s.vers {
		if v.Status == models.VerificationPending {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r versRepo) Review(_ context.Context, id string, status models.VerificationStatus, reason, reviewerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vers[id]
	if !ok || v.Status != models.VerificationPending {
		return repo.ErrNotFound
	}
	now := time.Now()
	v.Status = status
	v.Reason = reason
	v.ReviewedBy = &reviewerID
	v.ReviewedAt = &now
	r.s.vers[id] = v
	return nil
}

// ----------------- audit logs -----------------

type auditRepo struct{ s *Store }

func (r auditRepo) Create(_ context.Context, l models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now()
	r.s.logs = append(r.s.logs, l)
	return nil
}

func (r auditRepo) List(_ context.Context, entityType string, entityID *string, limit, offset int) ([]models.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.AuditLog
	for _, l := range r.s.logs {
		if entityType != "" && l.EntityType != entityType {
			continue
		}
		if entityID != nil && (l.EntityID == nil || *l.EntityID != *entityID) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
