package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fleetlog/fleetlog/internal/api"
	"github.com/fleetlog/fleetlog/internal/auth"
	"github.com/fleetlog/fleetlog/internal/category"
	"github.com/fleetlog/fleetlog/internal/config"
	"github.com/fleetlog/fleetlog/internal/metrics"
	"github.com/fleetlog/fleetlog/internal/operation"
	"github.com/fleetlog/fleetlog/internal/tenant"
	"github.com/fleetlog/fleetlog/internal/user"
	"github.com/fleetlog/fleetlog/internal/vehicle"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Fleetlog API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// sessionCleanupInterval controls how often expired sessions are purged.
const sessionCleanupInterval = time.Hour

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	policy := auth.DefaultPolicy()
	if cfg.Auth.PolicyFile != "" {
		policy, err = auth.LoadPolicy(cfg.Auth.PolicyFile)
		if err != nil {
			return err
		}
		slog.Info("access policy loaded", "file", cfg.Auth.PolicyFile)
	}

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		s := pool.Stat()
		return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
	})

	userStore := user.NewStore(pool, cfg.Auth.SessionDuration)
	tenantStore := tenant.NewStore(pool)
	vehicleStore := vehicle.NewStore(pool)
	categoryStore := category.NewStore(pool)

	operationStore := operation.NewStore(pool)
	operationService := operation.NewService(operationStore, vehicleStore,
		category.NewValidator(categoryStore))

	go cleanSessions(ctx, userStore, m)

	router := api.NewRouter(api.RouterDeps{
		Users:      userStore,
		Tenants:    tenantStore,
		Vehicles:   vehicleStore,
		Categories: categoryStore,
		Operations: operationService,

		Sessions:    user.NewAuthAdapter(userStore),
		Memberships: tenant.NewAuthAdapter(tenantStore),
		Policy:      policy,

		DB:             pool,
		AllowedOrigins: cfg.CORS.AllowedOrigins,

		MetricsHandler:        promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}),
		MetricsSummaryHandler: m.Handler(),
		ObserveRequest: func(method, pattern string, status int, duration time.Duration, bytes int) {
			m.HTTPRequestsTotal.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, pattern).Observe(duration.Seconds())
			m.HTTPResponseSize.WithLabelValues(method, pattern).Observe(float64(bytes))
		},
		ObserveOperation: m.IncOperationWrite,
		OnGuardReject:    m.IncGuardRejection,
		OnTenantDeleted:  m.IncTenantDeletion,
		ObserveAuth: func(success bool) {
			if success {
				m.IncAuthSuccess("password")
			} else {
				m.IncAuthFailure("password")
			}
		},
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}

// cleanSessions periodically removes expired sessions.
func cleanSessions(ctx context.Context, store *user.Store, m *metrics.Metrics) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CleanExpiredSessions(ctx)
			if err != nil {
				slog.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				m.AddSessionsCleaned(n)
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}
