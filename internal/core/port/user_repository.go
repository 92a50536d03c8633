package port

import (
	"context"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
)

// UserRepository persists account identities and answers credential lookups.
type UserRepository interface {
	// Create inserts a new user and returns the assigned identifier.
	Create(ctx context.Context, user domain.User) (int64, error)
	// GetByEmail returns the user owning the email, or repository.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetIDByUsername resolves a username into its identifier, or repository.ErrNotFound.
	GetIDByUsername(ctx context.Context, username string) (int64, error)
}
