package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/api/httpx"
	"github.com/solventa/solventa-backend/internal/api/validate"
	"github.com/solventa/solventa-backend/internal/models"
	"github.com/solventa/solventa-backend/internal/services"
)

type GoalsHandler struct {
	Svc *services.GoalService
}

func NewGoalsHandler(svc *services.GoalService) *GoalsHandler {
	return &GoalsHandler{Svc: svc}
}

type goalResp struct {
	models.SavingsGoal
	Progress float64 `json:"progress"`
}

func withProgress(g models.SavingsGoal) goalResp {
	return goalResp{SavingsGoal: g, Progress: g.Progress()}
}

func (h *GoalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID    string `json:"account_id"`
		Name         string `json:"name"`
		TargetAmount string `json:"target_amount"`
		TargetDate   string `json:"target_date"` // RFC 3339, optional
	}
	if !decode(w, r, &req) {
		return
	}
	target, ef := validate.Amount("target_amount", req.TargetAmount)
	if err := validate.Collect(
		validate.Required("account_id", req.AccountID),
		validate.Required("name", req.Name),
		ef,
	); err != nil {
		writeServiceError(w, err)
		return
	}
	var targetDate *time.Time
	if req.TargetDate != "" {
		t, err := time.Parse(time.RFC3339, req.TargetDate)
		if err != nil {
			writeServiceError(w, validate.Errs{{Field: "target_date", Msg: "invalid date"}})
			return
		}
		targetDate = &t
	}

	uid, _ := actor(r)
	g, err := h.Svc.Create(r.Context(), uid, req.AccountID, req.Name, target, targetDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, withProgress(g))
}

func (h *GoalsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := actor(r)
	goals, err := h.Svc.List(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]goalResp, 0, len(goals))
	for _, g := range goals {
		out = append(out, withProgress(g))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *GoalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := actor(r)
	g, err := h.Svc.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, withProgress(g))
}

func (h *GoalsHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	h.moveGoal(w, r, h.Svc.Contribute)
}

func (h *GoalsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.moveGoal(w, r, h.Svc.Withdraw)
}

func (h *GoalsHandler) moveGoal(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, userID, id string, amount decimal.Decimal) (models.SavingsGoal, error)) {
	var req struct {
		Amount string `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	amount, ef := validate.Amount("amount", req.Amount)
	if ef != nil {
		writeServiceError(w, validate.Collect(ef))
		return
	}
	uid, _ := actor(r)
	g, err := fn(r.Context(), uid, chi.URLParam(r, "id"), amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, withProgress(g))
}

func (h *GoalsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	uid, _ := actor(r)
	g, err := h.Svc.Cancel(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, withProgress(g))
}
