package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for categories.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const categoryColumns = `id, tenant_id, name, source, created_at`

func scanCategory(row pgx.Row) (*Category, error) {
	c := &Category{}
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Source, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a tenant-scoped category.
func (s *Store) Create(ctx context.Context, tenantID string, in CreateCategoryInput) (*Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}
	source, err := ParseSource(in.Source)
	if err != nil {
		return nil, err
	}

	c, err := scanCategory(s.pool.QueryRow(ctx,
		`INSERT INTO categories (tenant_id, name, source) VALUES ($1, $2, $3)
		 RETURNING `+categoryColumns,
		tenantID, strings.TrimSpace(in.Name), source,
	))
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return c, nil
}

// GetByIDs fetches the categories matching the given ids, regardless of
// tenant. Callers are responsible for tenant checks (see Validator).
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]*Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("getting categories by ids: %w", err)
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListByTenant returns the tenant's own categories plus the system-wide
// ones, optionally filtered by source.
func (s *Store) ListByTenant(ctx context.Context, tenantID string, source Source) ([]*Category, error) {
	args := []any{tenantID}
	query := `SELECT ` + categoryColumns + ` FROM categories
		WHERE (tenant_id = $1 OR tenant_id IS NULL)`
	if source != "" {
		args = append(args, source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update renames a category. System categories are visible to every
// tenant, so touching one reports ErrSystemCategory; foreign rows remain
// indistinguishable from missing ones.
func (s *Store) Update(ctx context.Context, tenantID, id string, in UpdateCategoryInput) (*Category, error) {
	if in.Name == nil {
		c, err := scanCategory(s.pool.QueryRow(ctx,
			`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND tenant_id = $2`,
			id, tenantID))
		if err != nil {
			if err == pgx.ErrNoRows {
				return nil, s.missRowError(ctx, id)
			}
			return nil, fmt.Errorf("getting category: %w", err)
		}
		return c, nil
	}
	if strings.TrimSpace(*in.Name) == "" {
		return nil, ErrNameRequired
	}

	c, err := scanCategory(s.pool.QueryRow(ctx,
		`UPDATE categories SET name = $1 WHERE id = $2 AND tenant_id = $3
		 RETURNING `+categoryColumns,
		strings.TrimSpace(*in.Name), id, tenantID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, s.missRowError(ctx, id)
		}
		return nil, fmt.Errorf("updating category: %w", err)
	}
	return c, nil
}

// Delete removes a tenant-scoped category. System categories report
// ErrSystemCategory; foreign rows surface as not found.
func (s *Store) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM categories WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missRowError(ctx, id)
	}
	return nil
}

// missRowError distinguishes a write that missed because the target is a
// system category from one that missed because the row is absent or
// belongs to another tenant. Only the system case may be named: system
// rows are visible to everyone, so the error leaks nothing.
func (s *Store) missRowError(ctx context.Context, id string) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND tenant_id IS NULL)`,
		id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking for system category: %w", err)
	}
	if exists {
		return ErrSystemCategory
	}
	return ErrUnknownCategory
}
