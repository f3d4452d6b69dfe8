package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/solventa/solventa-backend/internal/api/httpx"
	"github.com/solventa/solventa-backend/internal/api/validate"
	"github.com/solventa/solventa-backend/internal/models"
	repo "github.com/solventa/solventa-backend/internal/repository"
	"github.com/solventa/solventa-backend/internal/services"
)

// AdminHandler backs the admin console; every route behind it is
// gated on the admin role.
type AdminHandler struct {
	Users     *services.UserService
	Accounts  *services.AccountService
	Transfers *services.TransferService
	KYC       *services.VerificationService
	AuditLogs repo.AuditLogs
}

func NewAdminHandler(users *services.UserService, accounts *services.AccountService,
	transfers *services.TransferService, kyc *services.VerificationService, logs repo.AuditLogs) *AdminHandler {
	return &AdminHandler{Users: users, Accounts: accounts, Transfers: transfers, KYC: kyc, AuditLogs: logs}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := limitOffset(r)
	users, err := h.Users.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *AdminHandler) ListUserAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accounts)
}

func (h *AdminHandler) FreezeAccount(w http.ResponseWriter, r *http.Request) {
	h.setAccountStatus(w, r, models.AccountFrozen)
}

func (h *AdminHandler) UnfreezeAccount(w http.ResponseWriter, r *http.Request) {
	h.setAccountStatus(w, r, models.AccountActive)
}

func (h *AdminHandler) setAccountStatus(w http.ResponseWriter, r *http.Request, status models.AccountStatus) {
	uid, _ := actor(r)
	if err := h.Accounts.SetStatus(r.Context(), uid, chi.URLParam(r, "id"), status); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := limitOffset(r)
	txs, err := h.Transfers.ListAll(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}

func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := limitOffset(r)
	entityType := r.URL.Query().Get("entity_type")
	var entityID *string
	if v := r.URL.Query().Get("entity_id"); v != "" {
		entityID = &v
	}
	logs, err := h.AuditLogs.List(r.Context(), entityType, entityID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, logs)
}

func (h *AdminHandler) ListPendingKYC(w http.ResponseWriter, r *http.Request) {
	limit, offset := limitOffset(r)
	reqs, err := h.KYC.ListPending(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, reqs)
}

func (h *AdminHandler) ApproveKYC(w http.ResponseWriter, r *http.Request) {
	uid, _ := actor(r)
	if err := h.KYC.Approve(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) RejectKYC(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := validate.Collect(validate.Required("reason", req.Reason)); err != nil {
		writeServiceError(w, err)
		return
	}
	uid, _ := actor(r)
	if err := h.KYC.Reject(r.Context(), uid, chi.URLParam(r, "id"), req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
