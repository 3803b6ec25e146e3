// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist
	// (for the state store: no document row for this user yet).
	ErrNotFound = errors.New("not found")

	// ErrSchemaMissing indicates the remote store lacks the expected
	// table or column; the operator must run the setup script.
	ErrSchemaMissing = errors.New("schema missing")

	// ErrUnauthorized indicates failed authentication (bad credentials).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnauthorizedIdentity indicates the authenticated identity is not
	// the approved operator of this installation.
	ErrUnauthorizedIdentity = errors.New("unauthorized identity")

	// ErrVerificationRequired indicates the account exists but its email
	// verification challenge has not been completed.
	ErrVerificationRequired = errors.New("verification required")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrMalformedBackup indicates an import file that is not valid JSON
	// for an AppData document.
	ErrMalformedBackup = errors.New("malformed backup")
)
