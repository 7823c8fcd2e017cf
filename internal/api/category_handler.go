package api

import (
	"net/http"

	"github.com/fleetlog/fleetlog/internal/auth"
	"github.com/fleetlog/fleetlog/internal/category"
	"github.com/go-chi/chi/v5"
)

// categoryHandler groups category HTTP handlers.
type categoryHandler struct {
	categories *category.Store
}

func newCategoryHandler(categories *category.Store) *categoryHandler {
	return &categoryHandler{categories: categories}
}

// List handles GET /api/v1/categories?source=fuel. The result mixes the
// tenant's own categories with the shared system set.
func (h *categoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var source category.Source
	if s := r.URL.Query().Get("source"); s != "" {
		parsed, err := category.ParseSource(s)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "unknown category source")
			return
		}
		source = parsed
	}

	categories, err := h.categories.ListByTenant(r.Context(), ac.TenantID, source)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list categories")
		return
	}
	if categories == nil {
		categories = []*category.Category{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// Create handles POST /api/v1/categories.
func (h *categoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req category.CreateCategoryInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	c, err := h.categories.Create(r.Context(), ac.TenantID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	auditLog(r, "category.create", "category", c.ID, "name", c.Name, "source", c.Source)
	writeJSON(w, http.StatusCreated, c)
}

// Update handles PUT /api/v1/categories/{id}. System categories and other
// tenants' categories are both reported as unknown.
func (h *categoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req category.UpdateCategoryInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	c, err := h.categories.Update(r.Context(), ac.TenantID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	auditLog(r, "category.update", "category", c.ID)
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/categories/{id}.
func (h *categoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.categories.Delete(r.Context(), ac.TenantID, id); err != nil {
		writeDomainError(w, err)
		return
	}

	auditLog(r, "category.delete", "category", id)
	w.WriteHeader(http.StatusNoContent)
}
