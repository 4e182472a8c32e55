package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/http/middleware"
	"github.com/xavierca1/mrk-crm/internal/usecase"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string                    `json:"error"`
	Message string                    `json:"message"`
	Fields  []usecase.ValidationError `json:"fields,omitempty"`
}

var statusByCode = map[string]int{
	usecase.CodeInvalidTransition:      http.StatusUnprocessableEntity,
	usecase.CodeNotFound:               http.StatusNotFound,
	usecase.CodeUnauthorized:           http.StatusForbidden,
	usecase.CodeConcurrentModification: http.StatusConflict,
	usecase.CodeUnauthenticated:        http.StatusUnauthorized,
	usecase.CodeValidation:             http.StatusBadRequest,
	usecase.CodeConflict:               http.StatusConflict,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeError maps a use case error onto a status code and the
// {"error","message"} body. Anything that is not a domain error is logged
// and reported as internal_error without details.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verrs usecase.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   usecase.CodeValidation,
			Message: verrs.Error(),
			Fields:  verrs,
		})
		return
	}

	var de *usecase.DomainError
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		writeErrorResponse(w, status, de.Code, de.Message)
		return
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// decodeJSON reads a single JSON document into dst, rejecting unknown
// fields so a stray "status" in a lead patch is an error rather than
// silently ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// actor returns the authenticated user. Routes using it sit behind
// middleware.RequireAuth.
func actor(r *http.Request) entity.User {
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		return *u
	}
	return entity.User{}
}
