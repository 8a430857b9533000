package http

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/coregatekit/microservices/internal/domain"
	apperrors "github.com/coregatekit/microservices/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testIdentity() *domain.Identity {
	return &domain.Identity{
		Subject:           "kc-sub-1",
		UID:               "7f0f9a5e-2c4f-4a53-9e21-0a9f6f3f2b10",
		Name:              "Alice Smith",
		GivenName:         "Alice",
		FamilyName:        "Smith",
		PreferredUsername: "alice@example.com",
		Email:             "alice@example.com",
		EmailVerified:     true,
	}
}

// stubIDP is a programmable service.IdentityProvider.
type stubIDP struct {
	loginFn    func(ctx context.Context, username, password string) (*domain.TokenPair, error)
	logoutFn   func(ctx context.Context, refreshToken string) error
	userInfoFn func(ctx context.Context, accessToken string) (*domain.Identity, error)
	createFn   func(ctx context.Context, u *domain.User, password string) error
	deleteFn   func(ctx context.Context, email string) error

	userInfoCalls int
}

func (s *stubIDP) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, username, password)
	}
	return nil, apperrors.Unauthorized("invalid credentials")
}

func (s *stubIDP) Logout(ctx context.Context, refreshToken string) error {
	if s.logoutFn != nil {
		return s.logoutFn(ctx, refreshToken)
	}
	return nil
}

func (s *stubIDP) UserInfo(ctx context.Context, accessToken string) (*domain.Identity, error) {
	s.userInfoCalls++
	if s.userInfoFn != nil {
		return s.userInfoFn(ctx, accessToken)
	}
	return nil, apperrors.Unauthorized("invalid or expired token")
}

func (s *stubIDP) CreateUser(ctx context.Context, u *domain.User, password string) error {
	if s.createFn != nil {
		return s.createFn(ctx, u, password)
	}
	return nil
}

func (s *stubIDP) DeleteUser(ctx context.Context, email string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, email)
	}
	return nil
}

// stubUserRepo is a programmable repository.UserRepository.
type stubUserRepo struct {
	createFn        func(ctx context.Context, user *domain.User) error
	getByIDFn       func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*domain.User, error)
	existsFn        func(ctx context.Context, id string) (bool, error)
	deleteByEmailFn func(ctx context.Context, email string) error
}

func (s *stubUserRepo) Create(ctx context.Context, user *domain.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return nil, apperrors.ErrNotFound
}

func (s *stubUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	if s.existsFn != nil {
		return s.existsFn(ctx, id)
	}
	return true, nil
}

func (s *stubUserRepo) DeleteByEmail(ctx context.Context, email string) error {
	if s.deleteByEmailFn != nil {
		return s.deleteByEmailFn(ctx, email)
	}
	return nil
}

// stubAddressRepo is a programmable repository.AddressRepository.
type stubAddressRepo struct {
	createFn       func(ctx context.Context, address *domain.Address) error
	getByIDFn      func(ctx context.Context, addressID, userID string) (*domain.Address, error)
	listByUserFn   func(ctx context.Context, userID string, typ domain.AddressType) ([]domain.Address, error)
	listDefaultsFn func(ctx context.Context, userID string) ([]domain.Address, error)
	updateFn       func(ctx context.Context, address *domain.Address) error
	setDefaultFn   func(ctx context.Context, userID, addressID string, typ domain.AddressType) error
	deleteByUserFn func(ctx context.Context, userID string) (int64, error)
}

func (s *stubAddressRepo) Create(ctx context.Context, address *domain.Address) error {
	if s.createFn != nil {
		return s.createFn(ctx, address)
	}
	return nil
}

func (s *stubAddressRepo) GetByID(ctx context.Context, addressID, userID string) (*domain.Address, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, addressID, userID)
	}
	return nil, apperrors.ErrNotFound
}

func (s *stubAddressRepo) ListByUser(ctx context.Context, userID string, typ domain.AddressType) ([]domain.Address, error) {
	if s.listByUserFn != nil {
		return s.listByUserFn(ctx, userID, typ)
	}
	return []domain.Address{}, nil
}

func (s *stubAddressRepo) ListDefaults(ctx context.Context, userID string) ([]domain.Address, error) {
	if s.listDefaultsFn != nil {
		return s.listDefaultsFn(ctx, userID)
	}
	return []domain.Address{}, nil
}

func (s *stubAddressRepo) Update(ctx context.Context, address *domain.Address) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, address)
	}
	return nil
}

func (s *stubAddressRepo) SetDefault(ctx context.Context, userID, addressID string, typ domain.AddressType) error {
	if s.setDefaultFn != nil {
		return s.setDefaultFn(ctx, userID, addressID, typ)
	}
	return nil
}

func (s *stubAddressRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	if s.deleteByUserFn != nil {
		return s.deleteByUserFn(ctx, userID)
	}
	return 0, nil
}

// noopEvents is a service.EventPublisher that does nothing.
type noopEvents struct{}

func (noopEvents) PublishUserRegistered(context.Context, *domain.User) error { return nil }
func (noopEvents) PublishAddressCreated(context.Context, *domain.Address) error {
	return nil
}
func (noopEvents) PublishAddressUpdated(context.Context, *domain.Address) error {
	return nil
}
func (noopEvents) PublishAddressDefaultChanged(context.Context, string, string, domain.AddressType) error {
	return nil
}

var errBoom = errors.New("boom")
