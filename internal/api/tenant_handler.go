package api

import (
	"errors"
	"net/http"

	"github.com/fleetlog/fleetlog/internal/auth"
	"github.com/fleetlog/fleetlog/internal/tenant"
	"github.com/fleetlog/fleetlog/internal/user"
	"github.com/go-chi/chi/v5"
)

// tenantHandler groups tenant and membership HTTP handlers.
type tenantHandler struct {
	tenants *tenant.Store
	users   *user.Store

	// onTenantDeleted, when set, observes tenants deleted because their
	// last member left.
	onTenantDeleted func()
}

func newTenantHandler(tenants *tenant.Store, users *user.Store, onTenantDeleted func()) *tenantHandler {
	if onTenantDeleted == nil {
		onTenantDeleted = func() {}
	}
	return &tenantHandler{tenants: tenants, users: users, onTenantDeleted: onTenantDeleted}
}

// ListMine handles GET /api/v1/tenants — the caller's tenants with roles.
func (h *tenantHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	if ac == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	tenants, err := h.tenants.ListForUser(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list tenants")
		return
	}
	if tenants == nil {
		tenants = []*tenant.TenantWithRoles{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tenants": tenants})
}

// Create handles POST /api/v1/tenants. The creator becomes the owner.
func (h *tenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	if ac == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	var req tenant.CreateTenantInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	t, err := h.tenants.Create(r.Context(), ac.UserID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	auditLog(r, "tenant.create", "tenant", t.ID, "name", t.Name, "type", t.Type)
	writeJSON(w, http.StatusCreated, t)
}

// Get handles GET /api/v1/tenants/current.
func (h *tenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	t, err := h.tenants.GetByID(r.Context(), ac.TenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ListMembers handles GET /api/v1/tenants/current/members.
func (h *tenantHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	members, err := h.tenants.ListMembers(r.Context(), ac.TenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list members")
		return
	}
	if members == nil {
		members = []*tenant.Member{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

// AddMember handles POST /api/v1/tenants/current/members. The target user
// is identified by email; one call grants one role row.
func (h *tenantHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if _, err := auth.ParseRole(req.Role); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "unknown role")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "no user with that email")
		return
	}

	m, err := h.tenants.AddMember(r.Context(), ac.TenantID, u.ID, req.Role)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	auditLog(r, "membership.create", "membership", m.ID, "member_user_id", u.ID, "role", req.Role)
	writeJSON(w, http.StatusCreated, m)
}

// RemoveMember handles DELETE /api/v1/tenants/current/members/{userID}.
// Removing the last member deletes the tenant itself.
func (h *tenantHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	userID := chi.URLParam(r, "userID")

	h.removeMember(w, r, ac.TenantID, userID, "membership.remove")
}

// Leave handles POST /api/v1/tenants/current/leave — the caller removes
// their own membership.
func (h *tenantHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	h.removeMember(w, r, ac.TenantID, ac.UserID, "membership.leave")
}

func (h *tenantHandler) removeMember(w http.ResponseWriter, r *http.Request, tenantID, userID, action string) {
	tenantDeleted, err := h.tenants.RemoveMember(r.Context(), tenantID, userID)
	if err != nil {
		if errors.Is(err, tenant.ErrNotMember) {
			writeError(w, http.StatusNotFound, "not_found", "membership not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to remove member")
		return
	}

	if tenantDeleted {
		h.onTenantDeleted()
	}
	auditLog(r, action, "membership", userID, "tenant_deleted", tenantDeleted)
	writeJSON(w, http.StatusOK, map[string]interface{}{"tenant_deleted": tenantDeleted})
}
