package tenant

import (
	"context"

	"github.com/fleetlog/fleetlog/internal/auth"
)

// AuthAdapter adapts tenant.Store to the auth.MembershipResolver interface.
type AuthAdapter struct {
	store *Store
}

// NewAuthAdapter creates a new AuthAdapter wrapping the given tenant store.
func NewAuthAdapter(store *Store) *AuthAdapter {
	return &AuthAdapter{store: store}
}

// ResolveMembership aggregates the user's membership rows in the tenant
// into a role set. An empty set means no membership.
func (a *AuthAdapter) ResolveMembership(ctx context.Context, userID, tenantID string) (auth.RoleSet, error) {
	roles, err := a.store.GetMembershipRoles(ctx, userID, tenantID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, nil
	}
	return auth.NewRoleSet(roles...), nil
}
