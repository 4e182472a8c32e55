package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/usecase"
)

// AccessTokenCookie carries the access token for browser clients.
const AccessTokenCookie = "access_token"

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*entity.User, error)
}

type ctxKey struct{}

// WithUser stores the authenticated user on ctx.
func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the user set by RequireAuth.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*entity.User)
	return u, ok && u != nil
}

// RequireAuth resolves the access token from the cookie or an
// "Authorization: Bearer" header and rejects the request with 401 when it
// does not map to an active user.
func RequireAuth(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.Authenticate(r.Context(), tokenFromRequest(r))
			if err != nil {
				if usecase.IsTechnicalError(err) {
					logger.Error("authenticate request", "path", r.URL.Path, "error", err)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal error")
					return
				}
				writeJSONError(w, http.StatusUnauthorized, usecase.CodeUnauthenticated, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
