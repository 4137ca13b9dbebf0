// Package auth tracks who is signed in. Favorites can be gated behind a
// signed-in user; browsing never needs one.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrEmailInUse         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

// User is a signed-in identity.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Provider is an identity backend.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context) error
	// CurrentUser returns the signed-in user, or nil when nobody is.
	CurrentUser(ctx context.Context) (*User, error)
}
