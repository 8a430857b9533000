package service

import (
	"context"

	"github.com/coregatekit/microservices/internal/domain"
)

// IdentityProvider is the slice of the Keycloak client the services depend
// on. Credential handling never happens locally; it all goes through here.
type IdentityProvider interface {
	Login(ctx context.Context, username, password string) (*domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	UserInfo(ctx context.Context, accessToken string) (*domain.Identity, error)
	CreateUser(ctx context.Context, u *domain.User, password string) error
	DeleteUser(ctx context.Context, email string) error
}

// EventPublisher publishes domain events. Publish failures are logged and
// swallowed by the services; events are best-effort.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishAddressCreated(ctx context.Context, a *domain.Address) error
	PublishAddressUpdated(ctx context.Context, a *domain.Address) error
	PublishAddressDefaultChanged(ctx context.Context, userID, addressID string, typ domain.AddressType) error
}
