package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository persists staff and customer accounts. Finders return
// nil, nil when the user does not exist.
type UserRepository interface {
	// Create fails with ErrAlreadyExists when the username is taken
	Create(ctx context.Context, user *User) error
	// Update saves a mutated user, failing with ErrConcurrentModification
	// when the stored version moved on
	Update(ctx context.Context, user *User) error
	// RecordLogin stamps last_login_at only and leaves the version alone
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByUsername matches case-insensitively
	FindByUsername(ctx context.Context, username string) (*User, error)
}
