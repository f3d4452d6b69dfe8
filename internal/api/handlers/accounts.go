package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/solventa/solventa-backend/internal/api/httpx"
	"github.com/solventa/solventa-backend/internal/services"
)

type AccountsHandler struct {
	Svc *services.AccountService
}

func NewAccountsHandler(svc *services.AccountService) *AccountsHandler {
	return &AccountsHandler{Svc: svc}
}

func (h *AccountsHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Currency string `json:"currency"`
	}
	if !decode(w, r, &req) {
		return
	}
	uid, _ := actor(r)
	a, err := h.Svc.Open(r.Context(), uid, req.Name, req.Currency)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, a)
}

func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := actor(r)
	accounts, err := h.Svc.List(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accounts)
}

func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := actor(r)
	a, err := h.Svc.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *AccountsHandler) Close(w http.ResponseWriter, r *http.Request) {
	uid, _ := actor(r)
	if err := h.Svc.Close(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
