package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rabiehflowers/storefront/internal/auth"
	"github.com/rabiehflowers/storefront/internal/domain"
)

// AuthHandler handles login, logout, session, and settings endpoints.
type AuthHandler struct {
	gate  *auth.Gate
	isDev bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(gate *auth.Gate, isDev bool) *AuthHandler {
	return &AuthHandler{gate: gate, isDev: isDev}
}

// RegisterPublic registers routes available to every visitor.
func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)
	r.Get("/api/session", h.Session)
}

// RegisterOwner registers routes that require an owner session.
func (h *AuthHandler) RegisterOwner(r chi.Router) {
	r.Get("/api/settings", h.GetSettings)
	r.Put("/api/settings", h.UpdateSettings)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the supplied credentials and issues an owner session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, ok := h.gate.CheckLogin(req.Email, req.Password)
	if !ok {
		slog.Info("Login rejected", "email", req.Email)
		Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.gate.SessionTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !h.isDev,
	})

	slog.Info("Owner logged in")
	JSON(w, http.StatusOK, map[string]bool{"elevated": true})
}

// Logout clears the owner session. The confirmation prompt lives in the UI;
// by the time this endpoint is hit the owner has already confirmed.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.gate.Logout(auth.TokenFromRequest(r))

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !h.isDev,
	})

	JSON(w, http.StatusOK, map[string]bool{"elevated": false})
}

// Session reports whether the caller holds an owner session, plus the shop
// address shown in the storefront footer.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"elevated": h.gate.Elevated(auth.TokenFromRequest(r)),
		"address":  h.gate.Settings().Address,
	})
}

// GetSettings returns the settings record. The password is never echoed.
func (h *AuthHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s := h.gate.Settings()
	JSON(w, http.StatusOK, map[string]string{
		"email":   s.Email,
		"address": s.Address,
	})
}

// UpdateSettings replaces the settings record wholesale.
func (h *AuthHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var s domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.Email == "" || s.Password == "" || s.Address == "" {
		Error(w, http.StatusUnprocessableEntity, "email, password, and address are required")
		return
	}

	h.gate.UpdateSettings(r.Context(), s)
	slog.Info("Settings updated")
	JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
