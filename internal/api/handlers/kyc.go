package handlers

import (
	"net/http"

	"github.com/solventa/solventa-backend/internal/api/httpx"
	"github.com/solventa/solventa-backend/internal/api/validate"
	"github.com/solventa/solventa-backend/internal/models"
	"github.com/solventa/solventa-backend/internal/services"
)

type KYCHandler struct {
	Svc *services.VerificationService
}

func NewKYCHandler(svc *services.VerificationService) *KYCHandler {
	return &KYCHandler{Svc: svc}
}

func (h *KYCHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentType   string `json:"document_type"`
		DocumentNumber string `json:"document_number"`
		Country        string `json:"country"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := validate.Collect(
		validate.Required("document_type", req.DocumentType),
		validate.Required("document_number", req.DocumentNumber),
		validate.Required("country", req.Country),
	); err != nil {
		writeServiceError(w, err)
		return
	}
	uid, _ := actor(r)
	v, err := h.Svc.Submit(r.Context(), uid, models.DocumentType(req.DocumentType), req.DocumentNumber, req.Country)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v)
}

func (h *KYCHandler) Mine(w http.ResponseWriter, r *http.Request) {
	uid, _ := actor(r)
	v, err := h.Svc.Mine(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v)
}
