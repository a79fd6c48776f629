package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for account persistence
type UserRepository interface {
	// FindByID finds an account by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// ExistsByID checks if an account exists
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// ExistsByEmail checks if an email is already registered
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save creates or updates an account
	Save(ctx context.Context, user *User) error
}
