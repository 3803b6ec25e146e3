package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User is an operator account stored by the built-in auth provider.
// Passwords are never stored in plaintext.
type User struct {
	ID          uuid.UUID // PK
	Email       string    // unique, compared case-insensitively
	PwdHash     []byte    // Argon2id(password, SaltAuth)
	SaltAuth    []byte    // per-user auth salt
	Verified    bool      // email verification challenge completed
	VerifyToken string    // outstanding challenge token, empty once verified
	CreatedAt   time.Time
}
