package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/mrk-crm/internal/usecase"
)

type CampaignMappingHandler struct {
	Mappings *usecase.CampaignMappingUseCase
	Logger   *slog.Logger
}

func NewCampaignMappingHandler(mappings *usecase.CampaignMappingUseCase, logger *slog.Logger) *CampaignMappingHandler {
	return &CampaignMappingHandler{Mappings: mappings, Logger: logger}
}

func (h *CampaignMappingHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Mappings.List(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CampaignMappingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateCampaignMappingInput
	if !decodeJSON(w, r, &input) {
		return
	}
	m, err := h.Mappings.Create(r.Context(), input, actor(r))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *CampaignMappingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateCampaignMappingInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.MappingID = chi.URLParam(r, "id")

	m, err := h.Mappings.Update(r.Context(), input, actor(r))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Delete deactivates the mapping; rows are kept.
func (h *CampaignMappingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Mappings.Deactivate(r.Context(), chi.URLParam(r, "id"), actor(r)); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
