package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/mrk-crm/internal/usecase"
)

type OfferHandler struct {
	Offers *usecase.OfferUseCase
	Logger *slog.Logger
}

func NewOfferHandler(offers *usecase.OfferUseCase, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{Offers: offers, Logger: logger}
}

// List (GET /leads/{id}/offers)
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Offers.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create (POST /leads/{id}/offers)
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateOfferInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	o, err := h.Offers.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// Update (PATCH /offers/{id})
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateOfferInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.OfferID = chi.URLParam(r, "id")

	o, err := h.Offers.Update(r.Context(), input)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
