package user

import (
	"errors"
	"time"
)

// ErrEmailTaken reports a registration against an email that already has
// an account, including one racing this request past the handler's
// pre-check.
var ErrEmailTaken = errors.New("email already registered")

// User represents a registered account. Accounts are immutable after
// registration except for the password.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserInput holds the fields required to register a new user.
type CreateUserInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Session represents an active login session. The plaintext token is never
// stored; only its SHA-256 digest.
type Session struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
