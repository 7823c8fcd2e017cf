package api

import (
	"net/http"

	"github.com/fleetlog/fleetlog/internal/auth"
	"github.com/fleetlog/fleetlog/internal/vehicle"
	"github.com/go-chi/chi/v5"
)

// vehicleHandler groups vehicle HTTP handlers.
type vehicleHandler struct {
	vehicles *vehicle.Store
}

func newVehicleHandler(vehicles *vehicle.Store) *vehicleHandler {
	return &vehicleHandler{vehicles: vehicles}
}

// List handles GET /api/v1/vehicles.
func (h *vehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	vehicles, err := h.vehicles.ListByTenant(r.Context(), ac.TenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list vehicles")
		return
	}
	if vehicles == nil {
		vehicles = []*vehicle.Vehicle{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"vehicles": vehicles})
}

// Get handles GET /api/v1/vehicles/{id}.
func (h *vehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	v, err := h.vehicles.GetByID(r.Context(), ac.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Create handles POST /api/v1/vehicles.
func (h *vehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req vehicle.CreateVehicleInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	v, err := h.vehicles.Create(r.Context(), ac.TenantID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	auditLog(r, "vehicle.create", "vehicle", v.ID, "name", v.Name)
	writeJSON(w, http.StatusCreated, v)
}

// Delete handles DELETE /api/v1/vehicles/{id}.
func (h *vehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.vehicles.Delete(r.Context(), ac.TenantID, id); err != nil {
		writeDomainError(w, err)
		return
	}

	auditLog(r, "vehicle.delete", "vehicle", id)
	w.WriteHeader(http.StatusNoContent)
}
