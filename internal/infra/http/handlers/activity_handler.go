package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/mrk-crm/internal/usecase"
)

type ActivityHandler struct {
	Activities *usecase.ActivityUseCase
	Logger     *slog.Logger
}

func NewActivityHandler(activities *usecase.ActivityUseCase, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{Activities: activities, Logger: logger}
}

// List (GET /leads/{id}/activities)
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Activities.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create (POST /leads/{id}/activities)
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateActivityInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	a, err := h.Activities.Create(r.Context(), input, actor(r))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
