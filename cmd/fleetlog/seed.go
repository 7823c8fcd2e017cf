package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fleetlog/fleetlog/internal/category"
	"github.com/fleetlog/fleetlog/internal/config"
	"github.com/fleetlog/fleetlog/internal/operation"
	"github.com/fleetlog/fleetlog/internal/tenant"
	"github.com/fleetlog/fleetlog/internal/user"
	"github.com/fleetlog/fleetlog/internal/vehicle"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo user, fleet and example operations",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

const (
	demoEmail    = "demo@fleetlog.local"
	demoPassword = "demo-password"
)

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	userStore := user.NewStore(pool, cfg.Auth.SessionDuration)
	tenantStore := tenant.NewStore(pool)
	vehicleStore := vehicle.NewStore(pool)
	categoryStore := category.NewStore(pool)
	operations := operation.NewService(operation.NewStore(pool), vehicleStore,
		category.NewValidator(categoryStore))

	if _, err := userStore.GetByEmail(ctx, demoEmail); err == nil {
		slog.Info("demo data already present, skipping")
		return nil
	}

	u, err := userStore.Create(ctx, user.CreateUserInput{
		Email:     demoEmail,
		Password:  demoPassword,
		FirstName: "Demo",
		LastName:  "Driver",
	})
	if err != nil {
		return fmt.Errorf("creating demo user: %w", err)
	}

	t, err := tenantStore.Create(ctx, u.ID, tenant.CreateTenantInput{
		Name: "Demo Fleet",
		Type: tenant.TypeFleet,
	})
	if err != nil {
		return fmt.Errorf("creating demo tenant: %w", err)
	}

	v, err := vehicleStore.Create(ctx, t.ID, vehicle.CreateVehicleInput{
		Name:         "Van 1",
		Registration: "FL-001",
	})
	if err != nil {
		return fmt.Errorf("creating demo vehicle: %w", err)
	}

	fuelCat, err := categoryStore.Create(ctx, t.ID, category.CreateCategoryInput{
		Name:   "Diesel",
		Source: string(category.SourceFuel),
	})
	if err != nil {
		return fmt.Errorf("creating demo category: %w", err)
	}

	_, err = operations.CreateFuel(ctx, t.ID, u.ID, v.ID, operation.FuelCreate{
		Quantity:    48.2,
		Amount:      82.9,
		Description: "first fill-up",
		CategoryID:  fuelCat.ID,
	}, &operation.OdometerPayload{Value: 125000, Description: "at the pump"})
	if err != nil {
		return fmt.Errorf("creating demo operation: %w", err)
	}

	slog.Info("demo data seeded",
		"email", demoEmail,
		"password", demoPassword,
		"tenant_id", t.ID,
		"vehicle_id", v.ID,
	)
	return nil
}
