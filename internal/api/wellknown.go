package api

import "net/http"

// wellKnownManifest is the static JSON manifest for /.well-known/fleetlog.json.
const wellKnownManifest = `{
  "name": "Fleetlog",
  "description": "Multi-tenant fleet operations log",
  "version": "0.1.0",
  "api_base": "/api/v1",
  "auth": {
    "type": "bearer",
    "header": "Authorization",
    "tenant_header": "X-Tenant-ID"
  },
  "endpoints": {
    "auth": "/api/v1/auth",
    "tenants": "/api/v1/tenants",
    "vehicles": "/api/v1/vehicles",
    "categories": "/api/v1/categories",
    "operations": "/api/v1/operations"
  },
  "health": "/health"
}`

// WellKnownHandler returns the static Fleetlog well-known manifest.
func WellKnownHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(wellKnownManifest))
}
