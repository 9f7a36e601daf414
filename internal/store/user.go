package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
)

// UserStore defines the interface for researcher account persistence.
type UserStore interface {
	// Create saves a new user. It validates the domain User and hashes the
	// plaintext password internally.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	// The returned user never contains the plaintext password.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user. The caller must provide a complete
	// user including HashedPassword; a non-empty plaintext Password is hashed
	// and replaces the stored hash.
	// Returns ErrUserNotFound if the user does not exist and ErrEmailExists
	// when updating to a taken email.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore bound to the provided transaction, so
	// multiple operations can run atomically. The transaction is created and
	// managed by the caller, typically a service.
	WithTx(tx *sql.Tx) UserStore
}
