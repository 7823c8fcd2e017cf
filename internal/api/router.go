package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fleetlog/fleetlog/internal/auth"
	"github.com/fleetlog/fleetlog/internal/category"
	"github.com/fleetlog/fleetlog/internal/operation"
	"github.com/fleetlog/fleetlog/internal/tenant"
	"github.com/fleetlog/fleetlog/internal/user"
	"github.com/fleetlog/fleetlog/internal/vehicle"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Pinger reports backend connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Users      *user.Store
	Tenants    *tenant.Store
	Vehicles   *vehicle.Store
	Categories *category.Store
	Operations *operation.Service

	Sessions    auth.SessionResolver
	Memberships auth.MembershipResolver
	Policy      *auth.Policy

	DB             Pinger
	AllowedOrigins []string

	// MetricsHandler, when set, serves the prometheus text exposition at
	// /metrics.
	MetricsHandler http.Handler
	// MetricsSummaryHandler, when set, serves the JSON summary at
	// /metrics/summary.
	MetricsSummaryHandler http.HandlerFunc
	// ObserveRequest, when set, records one (method, pattern, status,
	// duration, bytes) tuple per request.
	ObserveRequest func(method, pattern string, status int, duration time.Duration, bytes int)
	// ObserveOperation, when set, records one operation write per (kind, action).
	ObserveOperation func(kind, action string)
	// OnGuardReject, when set, observes guard chain rejections by stage.
	OnGuardReject func(stage string)
	// OnTenantDeleted, when set, observes tenants deleted after their last
	// member left.
	OnTenantDeleted func()
	// ObserveAuth, when set, records one login outcome per attempt.
	ObserveAuth func(success bool)
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger(deps.ObserveRequest))

	guardDeps := auth.GuardDeps{
		Sessions:    deps.Sessions,
		Memberships: deps.Memberships,
		Policy:      deps.Policy,
		OnReject:    deps.OnGuardReject,
	}
	guard := func(checks auth.Checks, resource string, action auth.Action) func(http.Handler) http.Handler {
		return auth.Require(guardDeps, checks, resource, action)
	}

	// Handlers.
	authH := newAuthHandler(deps.Users, deps.ObserveAuth)
	tenants := newTenantHandler(deps.Tenants, deps.Users, deps.OnTenantDeleted)
	vehicles := newVehicleHandler(deps.Vehicles)
	categories := newCategoryHandler(deps.Categories)
	operations := newOperationHandler(deps.Operations, deps.ObserveOperation)

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.DB.Ping(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Well-known manifest.
	r.Get("/.well-known/fleetlog.json", WellKnownHandler)

	// Metrics: prometheus exposition plus a JSON summary.
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	if deps.MetricsSummaryHandler != nil {
		r.Get("/metrics/summary", deps.MetricsSummaryHandler)
	}

	// Authentication.
	r.Route("/api/v1/auth", func(ar chi.Router) {
		ar.With(guard(auth.Public, "", "")).Post("/register", authH.Register)
		ar.With(guard(auth.Public, "", "")).Post("/login", authH.Login)
		ar.With(guard(auth.Public, "", "")).Post("/logout", authH.Logout)
		ar.With(guard(auth.SessionOnly, "", "")).Get("/me", authH.Me)
		ar.With(guard(auth.SessionOnly, "", "")).Put("/password", authH.ChangePassword)
	})

	// Tenant lifecycle. Listing and creation are session-scoped; everything
	// under /current runs inside the tenant named by the X-Tenant-ID header.
	r.Route("/api/v1/tenants", func(tr chi.Router) {
		tr.With(guard(auth.SessionOnly, "", "")).Get("/", tenants.ListMine)
		tr.With(guard(auth.SessionOnly, "", "")).Post("/", tenants.Create)

		tr.Route("/current", func(cr chi.Router) {
			cr.With(guard(auth.Checks{}, "tenants", auth.ActionRead)).Get("/", tenants.Get)
			cr.With(guard(auth.Checks{}, "memberships", auth.ActionRead)).Get("/members", tenants.ListMembers)
			cr.With(guard(auth.Checks{}, "memberships", auth.ActionCreate)).Post("/members", tenants.AddMember)
			cr.With(guard(auth.Checks{}, "memberships", auth.ActionDelete)).Delete("/members/{userID}", tenants.RemoveMember)
			// Any member may leave on their own, regardless of role.
			cr.With(guard(auth.Checks{SkipRoles: true}, "memberships", auth.ActionDelete)).Post("/leave", tenants.Leave)
		})
	})

	// Vehicles.
	r.Route("/api/v1/vehicles", func(vr chi.Router) {
		vr.With(guard(auth.Checks{}, "vehicles", auth.ActionRead)).Get("/", vehicles.List)
		vr.With(guard(auth.Checks{}, "vehicles", auth.ActionRead)).Get("/{id}", vehicles.Get)
		vr.With(guard(auth.Checks{}, "vehicles", auth.ActionCreate)).Post("/", vehicles.Create)
		vr.With(guard(auth.Checks{}, "vehicles", auth.ActionDelete)).Delete("/{id}", vehicles.Delete)
	})

	// Categories.
	r.Route("/api/v1/categories", func(cr chi.Router) {
		cr.With(guard(auth.Checks{}, "categories", auth.ActionRead)).Get("/", categories.List)
		cr.With(guard(auth.Checks{}, "categories", auth.ActionCreate)).Post("/", categories.Create)
		cr.With(guard(auth.Checks{}, "categories", auth.ActionUpdate)).Put("/{id}", categories.Update)
		cr.With(guard(auth.Checks{}, "categories", auth.ActionDelete)).Delete("/{id}", categories.Delete)
	})

	// Operations. Reads and deletion are uniform; creation and update go
	// through kind-specific routes so the policy can restrict each kind.
	r.Route("/api/v1/operations", func(or chi.Router) {
		or.With(guard(auth.Checks{}, "operations", auth.ActionRead)).Get("/", operations.List)
		or.With(guard(auth.Checks{}, "operations", auth.ActionRead)).Get("/{id}", operations.Get)
		or.With(guard(auth.Checks{}, "operations", auth.ActionDelete)).Delete("/{id}", operations.Delete)

		or.With(guard(auth.Checks{}, "fuel", auth.ActionCreate)).Post("/fuel", operations.CreateFuel)
		or.With(guard(auth.Checks{}, "fuel", auth.ActionUpdate)).Put("/fuel/{id}", operations.UpdateFuel)
		or.With(guard(auth.Checks{}, "odometer", auth.ActionCreate)).Post("/odometer", operations.CreateOdometer)
		or.With(guard(auth.Checks{}, "odometer", auth.ActionUpdate)).Put("/odometer/{id}", operations.UpdateOdometer)
		or.With(guard(auth.Checks{}, "service", auth.ActionCreate)).Post("/service", operations.CreateService)
		or.With(guard(auth.Checks{}, "service", auth.ActionUpdate)).Put("/service/{id}", operations.UpdateService)
		or.With(guard(auth.Checks{}, "transaction", auth.ActionCreate)).Post("/transaction", operations.CreateTransaction)
		or.With(guard(auth.Checks{}, "transaction", auth.ActionUpdate)).Put("/transaction/{id}", operations.UpdateTransaction)
	})

	return r
}

// slogRequestLogger logs every request through slog and feeds the optional
// request observer.
func slogRequestLogger(observe func(method, pattern string, status int, duration time.Duration, bytes int)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", duration.Milliseconds(),
				"bytes", ww.BytesWritten(),
				"request_id", RequestIDFromContext(r.Context()),
			)

			if observe != nil {
				pattern := chi.RouteContext(r.Context()).RoutePattern()
				if pattern == "" {
					pattern = "unmatched"
				}
				observe(r.Method, pattern, ww.Status(), duration, ww.BytesWritten())
			}
		})
	}
}
