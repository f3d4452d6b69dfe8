package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/api/httpx"
	"github.com/solventa/solventa-backend/internal/api/validate"
	"github.com/solventa/solventa-backend/internal/services"
)

type CardsHandler struct {
	Svc *services.CardService
}

func NewCardsHandler(svc *services.CardService) *CardsHandler {
	return &CardsHandler{Svc: svc}
}

func (h *CardsHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if !decode(w, r, &req) {
		return
	}
	uid, _ := actor(r)
	card, err := h.Svc.Issue(r.Context(), uid, chi.URLParam(r, "id"), req.Label)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, card)
}

func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := actor(r)
	cards, err := h.Svc.List(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cards)
}

func (h *CardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := actor(r)
	card, err := h.Svc.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, card)
}

func (h *CardsHandler) Freeze(w http.ResponseWriter, r *http.Request)   { h.setStatus(w, r, h.Svc.Freeze) }
func (h *CardsHandler) Unfreeze(w http.ResponseWriter, r *http.Request) { h.setStatus(w, r, h.Svc.Unfreeze) }
func (h *CardsHandler) Cancel(w http.ResponseWriter, r *http.Request)   { h.setStatus(w, r, h.Svc.Cancel) }

func (h *CardsHandler) setStatus(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, id string) error) {
	uid, _ := actor(r)
	if err := fn(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CardsHandler) SetLimit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MonthlyLimit *string `json:"monthly_limit"` // null clears the limit
	}
	if !decode(w, r, &req) {
		return
	}
	var limit *decimal.Decimal
	if req.MonthlyLimit != nil {
		d, ef := validate.Amount("monthly_limit", *req.MonthlyLimit)
		if ef != nil {
			writeServiceError(w, validate.Collect(ef))
			return
		}
		limit = &d
	}
	uid, _ := actor(r)
	if err := h.Svc.SetLimit(r.Context(), uid, chi.URLParam(r, "id"), limit); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CardsHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount   string `json:"amount"`
		Merchant string `json:"merchant"`
	}
	if !decode(w, r, &req) {
		return
	}
	amount, ef := validate.Amount("amount", req.Amount)
	if err := validate.Collect(validate.Required("merchant", req.Merchant), ef); err != nil {
		writeServiceError(w, err)
		return
	}
	uid, _ := actor(r)
	tx, err := h.Svc.Authorize(r.Context(), uid, chi.URLParam(r, "id"), amount, req.Merchant)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tx)
}
