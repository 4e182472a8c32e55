package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xavierca1/mrk-crm/internal/infra/http/middleware"
	"github.com/xavierca1/mrk-crm/internal/usecase"
)

const refreshTokenCookie = "refresh_token"

type AuthHandler struct {
	Auth         *usecase.AuthUseCase
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieSecure bool
	Logger       *slog.Logger
}

func NewAuthHandler(auth *usecase.AuthUseCase, accessTTL, refreshTTL time.Duration, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		Auth:         auth,
		AccessTTL:    accessTTL,
		RefreshTTL:   refreshTTL,
		CookieSecure: cookieSecure,
		Logger:       logger,
	}
}

// Login (POST /auth/login)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input usecase.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	pair, user, err := h.Auth.Login(r.Context(), input)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	h.setCookies(w, pair)
	h.Logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusOK, pair)
}

// Refresh (POST /auth/refresh) reads the refresh cookie only.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(refreshTokenCookie); err == nil {
		token = c.Value
	}

	pair, err := h.Auth.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	h.setCookies(w, pair)
	writeJSON(w, http.StatusOK, pair)
}

// Logout (POST /auth/logout)
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me (GET /auth/me)
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, actor(r))
}

func (h *AuthHandler) setCookies(w http.ResponseWriter, pair *usecase.TokenPair) {
	h.setCookie(w, middleware.AccessTokenCookie, pair.AccessToken, h.AccessTTL)
	h.setCookie(w, refreshTokenCookie, pair.RefreshToken, h.RefreshTTL)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
