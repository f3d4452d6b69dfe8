package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/solventa/solventa-backend/internal/api/httpx"
	"github.com/solventa/solventa-backend/internal/api/validate"
	"github.com/solventa/solventa-backend/internal/services"
)

type TransfersHandler struct {
	Svc *services.TransferService
}

func NewTransfersHandler(svc *services.TransferService) *TransfersHandler {
	return &TransfersHandler{Svc: svc}
}

func idemKey(r *http.Request) string { return r.Header.Get("Idempotency-Key") }

func (h *TransfersHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"account_id"`
		Amount    string `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	amount, ef := validate.Amount("amount", req.Amount)
	if err := validate.Collect(validate.Required("account_id", req.AccountID), ef); err != nil {
		writeServiceError(w, err)
		return
	}
	uid, _ := actor(r)
	tx, err := h.Svc.Deposit(r.Context(), uid, req.AccountID, amount, idemKey(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tx)
}

func (h *TransfersHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"account_id"`
		Amount    string `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	amount, ef := validate.Amount("amount", req.Amount)
	if err := validate.Collect(validate.Required("account_id", req.AccountID), ef); err != nil {
		writeServiceError(w, err)
		return
	}
	uid, _ := actor(r)
	tx, err := h.Svc.Withdraw(r.Context(), uid, req.AccountID, amount, idemKey(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tx)
}

func (h *TransfersHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromAccountID string `json:"from_account_id"`
		ToAccountID   string `json:"to_account_id"`
		Amount        string `json:"amount"`
		Description   string `json:"description"`
	}
	if !decode(w, r, &req) {
		return
	}
	amount, ef := validate.Amount("amount", req.Amount)
	if err := validate.Collect(
		validate.Required("from_account_id", req.FromAccountID),
		validate.Required("to_account_id", req.ToAccountID),
		ef,
	); err != nil {
		writeServiceError(w, err)
		return
	}
	uid, _ := actor(r)
	tx, err := h.Svc.Transfer(r.Context(), uid, req.FromAccountID, req.ToAccountID, amount, req.Description, idemKey(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tx)
}

func (h *TransfersHandler) P2P(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromAccountID  string `json:"from_account_id"`
		RecipientEmail string `json:"recipient_email"`
		Amount         string `json:"amount"`
		Description    string `json:"description"`
	}
	if !decode(w, r, &req) {
		return
	}
	amount, ef := validate.Amount("amount", req.Amount)
	if err := validate.Collect(
		validate.Required("from_account_id", req.FromAccountID),
		validate.Email("recipient_email", req.RecipientEmail),
		ef,
	); err != nil {
		writeServiceError(w, err)
		return
	}
	uid, _ := actor(r)
	tx, err := h.Svc.P2P(r.Context(), uid, req.FromAccountID, req.RecipientEmail, amount, req.Description, idemKey(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tx)
}

func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, role := actor(r)
	tx, err := h.Svc.GetByID(r.Context(), uid, role, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransfersHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	uid, role := actor(r)
	limit, offset := limitOffset(r)
	txs, err := h.Svc.ListByAccount(r.Context(), uid, role, chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}
