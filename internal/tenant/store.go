package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for tenants and memberships.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func validateCreate(in CreateTenantInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if in.Type != TypePersonal && in.Type != TypeFleet {
		return ErrInvalidType
	}
	return nil
}

// Create inserts a tenant and an owner membership for the creating user in
// one transaction. A tenant never exists without at least one member.
func (s *Store) Create(ctx context.Context, ownerUserID string, in CreateTenantInput) (*Tenant, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	t := &Tenant{}
	err = tx.QueryRow(ctx,
		`INSERT INTO tenants (name, type) VALUES ($1, $2)
		 RETURNING id, name, type, created_at`,
		strings.TrimSpace(in.Name), in.Type,
	).Scan(&t.ID, &t.Name, &t.Type, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating tenant: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO memberships (user_id, tenant_id, role) VALUES ($1, $2, 'owner')`,
		ownerUserID, t.ID)
	if err != nil {
		return nil, fmt.Errorf("creating owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing tenant create: %w", err)
	}
	return t, nil
}

// GetByID retrieves a tenant by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Tenant, error) {
	t := &Tenant{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, type, created_at FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Type, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting tenant: %w", err)
	}
	return t, nil
}

// ListForUser returns every tenant the user belongs to, with the user's
// aggregated roles in each.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*TenantWithRoles, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.id, t.name, t.type, t.created_at, array_agg(m.role ORDER BY m.role)
		 FROM tenants t JOIN memberships m ON m.tenant_id = t.id
		 WHERE m.user_id = $1
		 GROUP BY t.id, t.name, t.type, t.created_at
		 ORDER BY t.created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing tenants for user: %w", err)
	}
	defer rows.Close()

	var out []*TenantWithRoles
	for rows.Next() {
		tw := &TenantWithRoles{}
		if err := rows.Scan(&tw.ID, &tw.Name, &tw.Type, &tw.CreatedAt, &tw.Roles); err != nil {
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		out = append(out, tw)
	}
	return out, rows.Err()
}

// GetMembershipRoles returns the role strings the user holds in the tenant,
// or an empty slice when no membership exists.
func (s *Store) GetMembershipRoles(ctx context.Context, userID, tenantID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role FROM memberships WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("getting membership roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scanning membership role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// ListMembers returns the tenant's members with aggregated roles.
func (s *Store) ListMembers(ctx context.Context, tenantID string) ([]*Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.email, u.first_name, u.last_name, array_agg(m.role ORDER BY m.role)
		 FROM memberships m JOIN users u ON u.id = m.user_id
		 WHERE m.tenant_id = $1
		 GROUP BY u.id, u.email, u.first_name, u.last_name
		 ORDER BY u.email`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.UserID, &m.Email, &m.FirstName, &m.LastName, &m.Roles); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember grants a role to a user within the tenant. Granting a role the
// user already holds is a conflict.
func (s *Store) AddMember(ctx context.Context, tenantID, userID, role string) (*Membership, error) {
	m := &Membership{}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO memberships (user_id, tenant_id, role) VALUES ($1, $2, $3)
		 RETURNING id, user_id, tenant_id, role, created_at`,
		userID, tenantID, role,
	).Scan(&m.ID, &m.UserID, &m.TenantID, &m.Role, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("adding member: %w", err)
	}
	return m, nil
}

// RemoveMember deletes all of the user's membership rows in the tenant.
// When the removed member was the last one, the tenant itself is deleted in
// the same transaction, cascading to its vehicles, categories and
// operations. Returns whether the tenant was deleted.
func (s *Store) RemoveMember(ctx context.Context, tenantID, userID string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM memberships WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID)
	if err != nil {
		return false, fmt.Errorf("removing member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, ErrNotMember
	}

	var remaining int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM memberships WHERE tenant_id = $1`, tenantID,
	).Scan(&remaining)
	if err != nil {
		return false, fmt.Errorf("counting remaining members: %w", err)
	}

	deleted := false
	if remaining == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, tenantID); err != nil {
			return false, fmt.Errorf("deleting empty tenant: %w", err)
		}
		deleted = true
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing member removal: %w", err)
	}
	return deleted, nil
}
