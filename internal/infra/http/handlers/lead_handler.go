package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/mrk-crm/internal/usecase"
)

type LeadHandler struct {
	CreateLead   *usecase.CreateLeadUseCase
	ListLeads    *usecase.ListLeadsUseCase
	GetLead      *usecase.GetLeadUseCase
	UpdateLead   *usecase.UpdateLeadUseCase
	Transition   *usecase.TransitionLeadUseCase
	AssignCloser *usecase.AssignCloserUseCase
	Logger       *slog.Logger
}

func NewLeadHandler(
	createLead *usecase.CreateLeadUseCase,
	listLeads *usecase.ListLeadsUseCase,
	getLead *usecase.GetLeadUseCase,
	updateLead *usecase.UpdateLeadUseCase,
	transition *usecase.TransitionLeadUseCase,
	assignCloser *usecase.AssignCloserUseCase,
	logger *slog.Logger,
) *LeadHandler {
	return &LeadHandler{
		CreateLead:   createLead,
		ListLeads:    listLeads,
		GetLead:      getLead,
		UpdateLead:   updateLead,
		Transition:   transition,
		AssignCloser: assignCloser,
		Logger:       logger,
	}
}

// List (GET /leads)
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	input, errs := parseListLeadsQuery(r.URL.Query())
	if len(errs) > 0 {
		writeError(w, r, h.Logger, errs)
		return
	}

	out, err := h.ListLeads.Execute(r.Context(), input, actor(r))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Create (POST /leads)
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateLeadInput
	if !decodeJSON(w, r, &input) {
		return
	}

	out, err := h.CreateLead.Execute(r.Context(), input, actor(r))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Get (GET /leads/{id})
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	out, err := h.GetLead.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Update (PATCH /leads/{id}). Unknown fields, status included, are rejected
// by the decoder.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateLeadInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	out, err := h.UpdateLead.Execute(r.Context(), input)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// TransitionStatus (POST /leads/{id}/transition)
func (h *LeadHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	var input usecase.TransitionLeadInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	out, err := h.Transition.Execute(r.Context(), input, actor(r))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// History (GET /leads/{id}/history)
func (h *LeadHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.GetLead.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// Assign (POST /leads/{id}/assign-closer)
func (h *LeadHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var input usecase.AssignCloserInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	out, err := h.AssignCloser.Execute(r.Context(), input, actor(r))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func parseListLeadsQuery(q url.Values) (usecase.ListLeadsInput, usecase.ValidationErrors) {
	var errs usecase.ValidationErrors
	input := usecase.ListLeadsInput{
		ProjectTypeKey: q.Get("project_type_key"),
		Status:         q.Get("status"),
		Assignee:       q.Get("assignee"),
		Search:         q.Get("search"),
		Temperature:    q.Get("temperature"),
		Source:         q.Get("source"),
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &input.Page}, {"page_size", &input.PageSize}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, usecase.ValidationError{Field: p.name, Message: "must be an integer"})
			continue
		}
		*p.dst = n
	}

	if raw := q.Get("bot_completed"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, usecase.ValidationError{Field: "bot_completed", Message: "must be true or false"})
		} else {
			input.BotCompleted = &b
		}
	}
	return input, errs
}
