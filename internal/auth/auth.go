package auth

import (
	"context"
	"fmt"
	"sort"
)

// Role is a membership role within a tenant.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleAdmin        Role = "admin"
	RoleFleetManager Role = "fleet_manager"
	RoleDriver       Role = "driver"
	RoleViewer       Role = "viewer"
)

// roleRank orders roles from most to least privileged. Used only for
// presentation (reporting a member's primary role); authorization always
// evaluates the full set.
var roleRank = map[Role]int{
	RoleOwner:        5,
	RoleAdmin:        4,
	RoleFleetManager: 3,
	RoleDriver:       2,
	RoleViewer:       1,
}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RoleSet is the set of roles a user holds within one tenant. A user may
// hold several role rows for the same tenant; checks treat them additively.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from role strings, ignoring unknown values.
func NewRoleSet(roles ...string) RoleSet {
	rs := make(RoleSet, len(roles))
	for _, s := range roles {
		if r, err := ParseRole(s); err == nil {
			rs[r] = struct{}{}
		}
	}
	return rs
}

// Has reports whether the set contains the given role.
func (rs RoleSet) Has(r Role) bool {
	_, ok := rs[r]
	return ok
}

// HasAny reports whether the set contains at least one of the given roles.
func (rs RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if rs.Has(r) {
			return true
		}
	}
	return false
}

// Roles returns the set as a slice ordered from most to least privileged.
func (rs RoleSet) Roles() []Role {
	out := make([]Role, 0, len(rs))
	for r := range rs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return roleRank[out[i]] > roleRank[out[j]] })
	return out
}

// Primary returns the most privileged role in the set, or "" when empty.
func (rs RoleSet) Primary() Role {
	roles := rs.Roles()
	if len(roles) == 0 {
		return ""
	}
	return roles[0]
}

// Identity is the result of resolving a session token.
type Identity struct {
	UserID    string
	Email     string
	Name      string
	SessionID string // hash of the session token, never the plaintext
}

// Context is the immutable per-request authorization context. It is built
// exactly once, after all guard stages have passed, and threaded through
// every downstream call. TenantID and Roles are zero-valued on routes that
// skip tenant resolution.
type Context struct {
	UserID    string
	SessionID string
	TenantID  string
	Roles     RoleSet
}

// SessionResolver resolves an opaque session token to a user identity.
// A nil identity with nil error means the session does not exist.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*Identity, error)
}

// MembershipResolver resolves a user's role set within a tenant.
// A nil set with nil error means the user has no membership there.
type MembershipResolver interface {
	ResolveMembership(ctx context.Context, userID, tenantID string) (RoleSet, error)
}

type contextKey int

const authContextKey contextKey = iota

// WithContext returns a new request context carrying the auth context.
func WithContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext extracts the auth context, or nil if not present.
func FromContext(ctx context.Context) *Context {
	ac, _ := ctx.Value(authContextKey).(*Context)
	return ac
}
