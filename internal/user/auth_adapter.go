package user

import (
	"context"
	"errors"

	"github.com/fleetlog/fleetlog/internal/auth"
	"github.com/jackc/pgx/v5"
)

// AuthAdapter adapts user.Store to the auth.SessionResolver interface.
type AuthAdapter struct {
	store *Store
}

// NewAuthAdapter creates a new AuthAdapter wrapping the given user store.
func NewAuthAdapter(store *Store) *AuthAdapter {
	return &AuthAdapter{store: store}
}

// ResolveSession looks up a session token and returns the associated
// identity, or nil when no such session exists.
func (a *AuthAdapter) ResolveSession(ctx context.Context, token string) (*auth.Identity, error) {
	u, sessionID, err := a.store.GetSessionUser(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &auth.Identity{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.FirstName + " " + u.LastName,
		SessionID: sessionID,
	}, nil
}
