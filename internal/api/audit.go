package api

import (
	"log/slog"
	"net/http"

	"github.com/fleetlog/fleetlog/internal/auth"
)

// auditLog emits a structured audit log entry for a state-changing action.
func auditLog(r *http.Request, action string, resourceType string, resourceID string, detail ...any) {
	attrs := []any{
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", clientIP(r),
		"request_id", RequestIDFromContext(r.Context()),
	}

	if ac := auth.FromContext(r.Context()); ac != nil {
		attrs = append(attrs, "user_id", ac.UserID)
		if ac.TenantID != "" {
			attrs = append(attrs, "tenant_id", ac.TenantID)
		}
	}

	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
