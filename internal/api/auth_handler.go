package api

import (
	"net/http"

	"github.com/fleetlog/fleetlog/internal/auth"
	"github.com/fleetlog/fleetlog/internal/user"
)

// authHandler groups authentication HTTP handlers.
type authHandler struct {
	users *user.Store

	// observeAuth, when set, records one login outcome per attempt.
	observeAuth func(success bool)
}

func newAuthHandler(users *user.Store, observeAuth func(success bool)) *authHandler {
	if observeAuth == nil {
		observeAuth = func(bool) {}
	}
	return &authHandler{users: users, observeAuth: observeAuth}
}

// Register handles POST /api/v1/auth/register.
func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.CreateUserInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if req.Email == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "password must be at least 8 characters")
		return
	}

	// The unique constraint catches duplicates atomically, including a
	// concurrent registration of the same email.
	u, err := h.users.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	auditLog(r, "user.register", "user", u.ID, "email", u.Email)
	writeJSON(w, http.StatusCreated, u)
}

// Login handles POST /api/v1/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "email and password are required")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.observeAuth(false)
		writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid email or password")
		return
	}

	if !user.CheckPassword(u, req.Password) {
		h.observeAuth(false)
		writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid email or password")
		return
	}

	h.observeAuth(true)
	token, session, err := h.users.CreateSession(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": session.ExpiresAt,
		"user":       u,
	})
}

// Logout handles POST /api/v1/auth/logout.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	_ = h.users.DeleteSession(r.Context(), token)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	if ac == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	u, err := h.users.GetByID(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// ChangePassword handles PUT /api/v1/auth/password.
func (h *authHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	if ac == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "password must be at least 8 characters")
		return
	}

	u, err := h.users.GetByID(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load user")
		return
	}
	if !user.CheckPassword(u, req.CurrentPassword) {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "current password is incorrect")
		return
	}

	if err := h.users.UpdatePassword(r.Context(), u.ID, req.NewPassword); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update password")
		return
	}

	auditLog(r, "user.change_password", "user", u.ID)
	w.WriteHeader(http.StatusNoContent)
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	return ""
}
