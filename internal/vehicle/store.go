package vehicle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for vehicles. Beyond the lookup the
// operation aggregate consumes, only the minimal create/list/delete surface
// is exposed.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const vehicleColumns = `id, tenant_id, name, registration, created_at`

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	v := &Vehicle{}
	err := row.Scan(&v.ID, &v.TenantID, &v.Name, &v.Registration, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Create inserts a vehicle owned by the given tenant.
func (s *Store) Create(ctx context.Context, tenantID string, in CreateVehicleInput) (*Vehicle, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}

	v, err := scanVehicle(s.pool.QueryRow(ctx,
		`INSERT INTO vehicles (tenant_id, name, registration) VALUES ($1, $2, $3)
		 RETURNING `+vehicleColumns,
		tenantID, strings.TrimSpace(in.Name), in.Registration,
	))
	if err != nil {
		return nil, fmt.Errorf("creating vehicle: %w", err)
	}
	return v, nil
}

// GetByID retrieves a vehicle within the caller's tenant. This is the
// ownership lookup the operation aggregate consumes; a vehicle belonging
// to another tenant is indistinguishable from a missing one.
func (s *Store) GetByID(ctx context.Context, tenantID, id string) (*Vehicle, error) {
	v, err := scanVehicle(s.pool.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1 AND tenant_id = $2`,
		id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting vehicle: %w", err)
	}
	return v, nil
}

// ListByTenant returns the tenant's vehicles ordered by name.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]*Vehicle, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE tenant_id = $1 ORDER BY name`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	defer rows.Close()

	var out []*Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning vehicle row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Delete removes a vehicle within the tenant. Foreign rows surface as not
// found.
func (s *Store) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM vehicles WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("deleting vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
