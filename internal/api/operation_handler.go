package api

import (
	"net/http"
	"strconv"

	"github.com/fleetlog/fleetlog/internal/auth"
	"github.com/fleetlog/fleetlog/internal/operation"
	"github.com/go-chi/chi/v5"
)

// operationHandler groups operation HTTP handlers. Creation and update are
// kind-specific routes; reads and deletion are uniform across kinds.
type operationHandler struct {
	operations *operation.Service

	// observe, when set, records one write per (kind, action).
	observe func(kind, action string)
}

func newOperationHandler(operations *operation.Service, observe func(kind, action string)) *operationHandler {
	if observe == nil {
		observe = func(string, string) {}
	}
	return &operationHandler{operations: operations, observe: observe}
}

// CreateFuel handles POST /api/v1/operations/fuel.
func (h *operationHandler) CreateFuel(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		VehicleID string                     `json:"vehicle_id"`
		Fuel      *operation.FuelCreate      `json:"fuel"`
		Odometer  *operation.OdometerPayload `json:"odometer"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Fuel == nil {
		writeDomainError(w, operation.ErrChildRequired)
		return
	}

	agg, err := h.operations.CreateFuel(r.Context(), ac.TenantID, ac.UserID, req.VehicleID, *req.Fuel, req.Odometer)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.created(w, r, agg)
}

// CreateOdometer handles POST /api/v1/operations/odometer.
func (h *operationHandler) CreateOdometer(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		VehicleID string                     `json:"vehicle_id"`
		Odometer  *operation.OdometerPayload `json:"odometer"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Odometer == nil {
		writeDomainError(w, operation.ErrChildRequired)
		return
	}

	agg, err := h.operations.CreateOdometer(r.Context(), ac.TenantID, ac.UserID, req.VehicleID, *req.Odometer)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.created(w, r, agg)
}

// CreateService handles POST /api/v1/operations/service.
func (h *operationHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		VehicleID string                     `json:"vehicle_id"`
		Service   *operation.ServiceCreate   `json:"service"`
		Odometer  *operation.OdometerPayload `json:"odometer"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Service == nil {
		writeDomainError(w, operation.ErrChildRequired)
		return
	}

	agg, err := h.operations.CreateService(r.Context(), ac.TenantID, ac.UserID, req.VehicleID, *req.Service, req.Odometer)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.created(w, r, agg)
}

// CreateTransaction handles POST /api/v1/operations/transaction.
func (h *operationHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		VehicleID   string                       `json:"vehicle_id"`
		Transaction *operation.TransactionCreate `json:"transaction"`
		Odometer    *operation.OdometerPayload   `json:"odometer"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Transaction == nil {
		writeDomainError(w, operation.ErrChildRequired)
		return
	}

	agg, err := h.operations.CreateTransaction(r.Context(), ac.TenantID, ac.UserID, req.VehicleID, *req.Transaction, req.Odometer)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.created(w, r, agg)
}

// Get handles GET /api/v1/operations/{id}.
func (h *operationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	agg, err := h.operations.Get(r.Context(), ac.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// List handles GET /api/v1/operations with vehicle_id, kind, cursor and
// limit query parameters.
func (h *operationHandler) List(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	q := r.URL.Query()

	params := operation.ListParams{
		VehicleID: q.Get("vehicle_id"),
		Cursor:    q.Get("cursor"),
	}
	if s := q.Get("kind"); s != "" {
		kind, err := operation.ParseKind(s)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "unknown operation kind")
			return
		}
		params.Kind = kind
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 || limit > 200 {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "limit must be between 1 and 200")
			return
		}
		params.Limit = limit
	}

	ops, nextCursor, err := h.operations.List(r.Context(), ac.TenantID, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if ops == nil {
		ops = []*operation.Operation{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"operations":  ops,
		"next_cursor": nextCursor,
	})
}

// UpdateFuel handles PUT /api/v1/operations/fuel/{id}. An absent odometer
// field removes the side reading; a present one creates or overwrites it.
func (h *operationHandler) UpdateFuel(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		Fuel     *operation.FuelUpdate      `json:"fuel"`
		Odometer *operation.OdometerPayload `json:"odometer"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Fuel == nil {
		req.Fuel = &operation.FuelUpdate{}
	}

	agg, err := h.operations.UpdateFuel(r.Context(), ac.TenantID, chi.URLParam(r, "id"), *req.Fuel, req.Odometer)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.updated(w, r, agg)
}

// UpdateOdometer handles PUT /api/v1/operations/odometer/{id}.
func (h *operationHandler) UpdateOdometer(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		Odometer *operation.OdometerUpdate `json:"odometer"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Odometer == nil {
		req.Odometer = &operation.OdometerUpdate{}
	}

	agg, err := h.operations.UpdateOdometer(r.Context(), ac.TenantID, chi.URLParam(r, "id"), *req.Odometer)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.updated(w, r, agg)
}

// UpdateService handles PUT /api/v1/operations/service/{id}.
func (h *operationHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		Service  *operation.ServiceUpdate   `json:"service"`
		Odometer *operation.OdometerPayload `json:"odometer"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Service == nil {
		req.Service = &operation.ServiceUpdate{}
	}

	agg, err := h.operations.UpdateService(r.Context(), ac.TenantID, chi.URLParam(r, "id"), *req.Service, req.Odometer)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.updated(w, r, agg)
}

// UpdateTransaction handles PUT /api/v1/operations/transaction/{id}.
func (h *operationHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())

	var req struct {
		Transaction *operation.TransactionUpdate `json:"transaction"`
		Odometer    *operation.OdometerPayload   `json:"odometer"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Transaction == nil {
		req.Transaction = &operation.TransactionUpdate{}
	}

	agg, err := h.operations.UpdateTransaction(r.Context(), ac.TenantID, chi.URLParam(r, "id"), *req.Transaction, req.Odometer)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.updated(w, r, agg)
}

// Delete handles DELETE /api/v1/operations/{id}.
func (h *operationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	kind, err := h.operations.Remove(r.Context(), ac.TenantID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.observe(string(kind), "delete")
	auditLog(r, "operation.delete", "operation", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *operationHandler) created(w http.ResponseWriter, r *http.Request, agg *operation.Aggregate) {
	h.observe(string(agg.Operation.Kind), "create")
	auditLog(r, "operation.create", "operation", agg.Operation.ID,
		"kind", agg.Operation.Kind, "vehicle_id", agg.Operation.VehicleID)
	writeJSON(w, http.StatusCreated, agg)
}

func (h *operationHandler) updated(w http.ResponseWriter, r *http.Request, agg *operation.Aggregate) {
	h.observe(string(agg.Operation.Kind), "update")
	auditLog(r, "operation.update", "operation", agg.Operation.ID, "kind", agg.Operation.Kind)
	writeJSON(w, http.StatusOK, agg)
}
