package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/fluxobpm/fluxo/internal/domain"
	"github.com/fluxobpm/fluxo/internal/identity"
	"github.com/fluxobpm/fluxo/internal/store"
	"github.com/go-chi/chi/v5"
)

// AuthHandler implements the trivial session login endpoints.
type AuthHandler struct {
	repo  store.Repository
	isDev bool
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(repo store.Repository, isDev bool) *AuthHandler {
	return &AuthHandler{repo: repo, isDev: isDev}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)
	r.Get("/api/me", h.Me)
}

type loginRequest struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// Login establishes a session for an email and role. There is no password;
// authentication here is a session flag, not an access control.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		Error(w, http.StatusBadRequest, "invalid email")
		return
	}
	if !domain.ValidRole(req.Role) {
		Error(w, http.StatusBadRequest, "role must be modeler or executor")
		return
	}

	userID, err := identity.NewUserID()
	if err != nil {
		slog.Error("Failed to generate session id", "error", err)
		Error(w, http.StatusInternalServerError, "failed to establish session")
		return
	}

	now := time.Now()
	user := &domain.User{
		UserID:     userID,
		Email:      req.Email,
		Role:       req.Role,
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.repo.UpsertUser(r.Context(), user); err != nil {
		slog.Error("Failed to store session user", "error", err)
		Error(w, http.StatusInternalServerError, "failed to establish session")
		return
	}

	identity.SetSessionCookie(w, userID, h.isDev)
	slog.Info("User logged in", "user_id", userID, "role", req.Role)
	JSON(w, http.StatusOK, user)
}

// Logout clears the session cookie and removes the stored user.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID != "" {
		if err := h.repo.DeleteUser(r.Context(), userID); err != nil {
			slog.Warn("Failed to delete session user", "user_id", userID, "error", err)
		}
	}
	identity.ClearSessionCookie(w)
	JSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me echoes the current session user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "not logged in")
		return
	}
	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load session user", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if user == nil {
		Error(w, http.StatusUnauthorized, "session expired")
		return
	}
	JSON(w, http.StatusOK, user)
}
