package services

import (
	"context"
	"errors"
	"strings"

	"github.com/solventa/solventa-backend/internal/auth"
	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
)

type UserService struct {
	runner  repo.TxRunner
	users   repo.Users
	acc     repo.Accounts
	auditor *Auditor
	notify  *Notifier
}

func NewUserService(runner repo.TxRunner, users repo.Users, acc repo.Accounts, auditor *Auditor, notify *Notifier) *UserService {
	return &UserService{runner: runner, users: users, acc: acc, auditor: auditor, notify: notify}
}

// Register creates the user and their default checking account in one
// DB transaction.
func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	u := models.User{Username: strings.TrimSpace(username), Email: strings.ToLower(strings.TrimSpace(email)), Role: "user"}
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if _, err := s.users.GetByEmail(ctx, u.Email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	var created models.User
	err = s.runner.WithTx(ctx, func(ctx context.Context) error {
		created, err = s.users.Create(ctx, u.Username, u.Email, hash, u.Role)
		if err != nil {
			return err
		}
		_, err = s.acc.Create(ctx, models.Account{
			UserID:   created.ID,
			Number:   NewAccountNumber(),
			Name:     "Main",
			Currency: "USD",
			Status:   models.AccountActive,
		})
		return err
	})
	if err != nil {
		return models.User{}, err
	}

	s.auditor.Record("user", created.ID, created.ID, "user.registered", nil)
	s.notify.Welcome(created.Email, created.Username)
	return created, nil
}

// Authenticate checks credentials; token issuance is the handler's job.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		s.auditor.Record("user", u.ID, u.ID, "user.login_failed", nil)
		return models.User{}, ErrInvalidCredentials
	}
	s.auditor.Record("user", u.ID, u.ID, "user.login", nil)
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id, username string) (models.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return models.User{}, errors.New("username too short")
	}
	if err := s.users.UpdateProfile(ctx, id, username); err != nil {
		return models.User{}, err
	}
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, limit, offset)
}
