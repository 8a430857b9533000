package repository

import (
	"context"

	"github.com/coregatekit/microservices/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ExistsByID reports whether a user with the given id exists.
	ExistsByID(ctx context.Context, id string) (bool, error)

	// DeleteByEmail removes a user by email. Addresses are removed with it
	// via the foreign key's cascade.
	DeleteByEmail(ctx context.Context, email string) error
}

// AddressRepository defines the interface for address persistence operations.
// Implementations must preserve the single-default-per-(user, type) invariant
// on every mutating call.
type AddressRepository interface {
	// Create inserts a new address. When the address is flagged default, any
	// existing default of the same (user, type) is cleared first; both writes
	// happen in one transaction.
	Create(ctx context.Context, address *domain.Address) error

	// GetByID retrieves an address matching both id and owner. A miss and a
	// cross-tenant id look identical to the caller.
	GetByID(ctx context.Context, addressID, userID string) (*domain.Address, error)

	// ListByUser returns all addresses for the user, optionally filtered by
	// type when typ is non-empty.
	ListByUser(ctx context.Context, userID string, typ domain.AddressType) ([]domain.Address, error)

	// ListDefaults returns the user's default addresses, at most one per type.
	ListDefaults(ctx context.Context, userID string) ([]domain.Address, error)

	// Update rewrites the stored row with the given address, scoped to its
	// owner. When the address is flagged default, sibling defaults of the same
	// type are cleared in the same transaction.
	Update(ctx context.Context, address *domain.Address) error

	// SetDefault re-points the default of the given type to addressID. The
	// (id, user, type) triple must match an existing row; a type mismatch is
	// reported as not-found. Idempotent.
	SetDefault(ctx context.Context, userID, addressID string, typ domain.AddressType) error

	// DeleteByUser removes all addresses for the user and returns the number
	// of rows deleted.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
