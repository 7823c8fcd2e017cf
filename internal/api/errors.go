package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fleetlog/fleetlog/internal/category"
	"github.com/fleetlog/fleetlog/internal/operation"
	"github.com/fleetlog/fleetlog/internal/tenant"
	"github.com/fleetlog/fleetlog/internal/user"
	"github.com/fleetlog/fleetlog/internal/vehicle"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v interface{}) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}

// writeDomainError maps domain sentinel errors onto the HTTP taxonomy.
// Not-found sentinels already conflate cross-tenant access upstream, so a
// plain 404 here never leaks another tenant's data.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, operation.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "operation not found")
	case errors.Is(err, operation.ErrVehicleNotFound),
		errors.Is(err, vehicle.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "vehicle not found")
	case errors.Is(err, category.ErrUnknownCategory):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "unknown category reference")
	case errors.Is(err, tenant.ErrNotMember):
		writeError(w, http.StatusNotFound, "not_found", "membership not found")
	case errors.Is(err, tenant.ErrAlreadyMember):
		writeError(w, http.StatusConflict, "conflict", "user already holds that role in the tenant")
	case errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusConflict, "conflict", "email already registered")
	case errors.Is(err, operation.ErrChildRequired):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "operation payload for its kind is required")
	case errors.Is(err, operation.ErrReadingNotAllowed):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "odometer operations cannot carry a second reading")
	case errors.Is(err, operation.ErrItemsRequired):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "at least one item is required")
	case errors.Is(err, operation.ErrDuplicateItemID):
		writeError(w, http.StatusConflict, "conflict", "duplicate item id in submission")
	case errors.Is(err, operation.ErrItemNotFound):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "submitted item id does not exist")
	case errors.Is(err, operation.ErrCategoryRequired):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "category reference is required")
	case errors.Is(err, operation.ErrInvalidTransactionType):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "transaction type must be expense or income")
	case errors.Is(err, category.ErrNameRequired),
		errors.Is(err, category.ErrInvalidSource),
		errors.Is(err, vehicle.ErrNameRequired),
		errors.Is(err, tenant.ErrNameRequired),
		errors.Is(err, tenant.ErrInvalidType):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, category.ErrSystemCategory):
		writeError(w, http.StatusForbidden, "forbidden", "system categories are read-only")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}
