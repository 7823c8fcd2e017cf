package tenant

import (
	"errors"
	"time"
)

// Tenant types. A personal tenant has exactly one owning user; a fleet
// tenant is multi-user.
const (
	TypePersonal = "personal"
	TypeFleet    = "fleet"
)

var (
	ErrNameRequired  = errors.New("tenant name is required")
	ErrInvalidType   = errors.New("tenant type must be personal or fleet")
	ErrAlreadyMember = errors.New("user already holds this role in the tenant")
	ErrNotMember     = errors.New("user is not a member of the tenant")
)

// Tenant is an organizational scope owning vehicles, operations and
// categories.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTenantInput holds the fields required to create a tenant.
type CreateTenantInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Membership is one (user, tenant, role) row. A user may hold several rows
// for the same tenant; the roles form a set.
type Membership struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantWithRoles pairs a tenant with the caller's aggregated roles in it.
type TenantWithRoles struct {
	Tenant
	Roles []string `json:"roles"`
}

// Member is a tenant member with aggregated roles, for listing.
type Member struct {
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`
}
