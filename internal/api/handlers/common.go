package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/solventa/solventa-backend/internal/api/httpx"
	"github.com/solventa/solventa-backend/internal/api/validate"
	"github.com/solventa/solventa-backend/internal/middleware"
	repo "github.com/solventa/solventa-backend/internal/repository"
	"github.com/solventa/solventa-backend/internal/services"
)

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return false
	}
	return true
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var fields validate.Errs
	switch {
	case errors.As(err, &fields):
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "validation failed", fields)
	case errors.Is(err, repo.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, services.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	case errors.Is(err, services.ErrKYCRequired):
		httpx.WriteError(w, http.StatusForbidden, "kyc_required", err.Error(), nil)
	case errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrDailyLimitExceeded),
		errors.Is(err, services.ErrCardLimitExceeded),
		errors.Is(err, services.ErrAccountNotActive),
		errors.Is(err, services.ErrCardNotActive),
		errors.Is(err, services.ErrGoalNotActive),
		errors.Is(err, services.ErrCurrencyMismatch),
		errors.Is(err, services.ErrSameAccount),
		errors.Is(err, services.ErrBalanceNotZero),
		errors.Is(err, services.ErrTooManyCards),
		errors.Is(err, services.ErrOpenVerification):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "rule_violation", err.Error(), nil)
	case errors.Is(err, services.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "email_taken", err.Error(), nil)
	default:
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
	}
}

func actor(r *http.Request) (userID, role string) {
	userID, _ = middleware.UserID(r.Context())
	role, _ = middleware.Role(r.Context())
	return userID, role
}

func limitOffset(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
