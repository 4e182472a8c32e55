package handlers

import (
	"log/slog"
	"net/http"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

// ReferenceHandler serves the read-only lookup data the board needs.
type ReferenceHandler struct {
	ProjectTypes entity.ProjectTypeRepositoryInterface
	Logger       *slog.Logger
}

func NewReferenceHandler(projectTypes entity.ProjectTypeRepositoryInterface, logger *slog.Logger) *ReferenceHandler {
	return &ReferenceHandler{ProjectTypes: projectTypes, Logger: logger}
}

// ListProjectTypes (GET /project-types)
func (h *ReferenceHandler) ListProjectTypes(w http.ResponseWriter, r *http.Request) {
	items, err := h.ProjectTypes.List(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type pipelineResponse struct {
	Statuses    []entity.LeadStatus                       `json:"statuses"`
	Transitions map[entity.LeadStatus][]entity.LeadStatus `json:"transitions"`
}

// Transitions (GET /pipeline/transitions)
func (h *ReferenceHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pipelineResponse{
		Statuses:    entity.PipelineStatuses,
		Transitions: entity.TransitionTable(),
	})
}
