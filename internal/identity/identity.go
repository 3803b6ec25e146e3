// Package identity defines the authentication surface of the
// application and the gate that restricts it to the approved operator.
package identity

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Session is an authenticated identity with a bearer token for the
// remote store.
type Session struct {
	UserID      uuid.UUID
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// SignUpResult is what a provider hands back after registration: a
// session when the provider signs the user in immediately, a challenge
// the user must present to complete verification first, or neither
// when verification happens out of band (a confirmation email).
type SignUpResult struct {
	Session   *Session
	Challenge string
}

// Provider performs authentication against some backend. SignIn and
// Session persist the resulting session so it can be restored across
// process runs; SignOut discards it.
type Provider interface {
	// Session restores the cached session, or errs.ErrNotFound when
	// nobody is signed in.
	Session(ctx context.Context) (*Session, error)
	// SignIn authenticates with email and password.
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignUp registers a new account.
	SignUp(ctx context.Context, email, password string) (*SignUpResult, error)
	// SignOut discards the cached session.
	SignOut(ctx context.Context) error
}
