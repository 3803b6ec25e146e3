package repository

import (
	"context"

	"github.com/creasion/crm/internal/model"
)

// UserRepository provides account storage for the built-in auth provider.
type UserRepository interface {
	// Create inserts a new, unverified user.
	Create(ctx context.Context, u *model.User) error
	// GetByEmail loads a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// MarkVerified completes the verification challenge identified by token.
	MarkVerified(ctx context.Context, token string) error
}
