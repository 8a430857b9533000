package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coregatekit/microservices/internal/domain"
)

// --- repository mocks ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) DeleteByEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type mockAddressRepo struct {
	mock.Mock
}

func (m *mockAddressRepo) Create(ctx context.Context, address *domain.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *mockAddressRepo) GetByID(ctx context.Context, addressID, userID string) (*domain.Address, error) {
	args := m.Called(ctx, addressID, userID)
	if a := args.Get(0); a != nil {
		return a.(*domain.Address), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAddressRepo) ListByUser(ctx context.Context, userID string, typ domain.AddressType) ([]domain.Address, error) {
	args := m.Called(ctx, userID, typ)
	if a := args.Get(0); a != nil {
		return a.([]domain.Address), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAddressRepo) ListDefaults(ctx context.Context, userID string) ([]domain.Address, error) {
	args := m.Called(ctx, userID)
	if a := args.Get(0); a != nil {
		return a.([]domain.Address), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAddressRepo) Update(ctx context.Context, address *domain.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *mockAddressRepo) SetDefault(ctx context.Context, userID, addressID string, typ domain.AddressType) error {
	args := m.Called(ctx, userID, addressID, typ)
	return args.Error(0)
}

func (m *mockAddressRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// --- identity provider mock ---

type mockIdentityProvider struct {
	mock.Mock
}

func (m *mockIdentityProvider) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	args := m.Called(ctx, username, password)
	if p := args.Get(0); p != nil {
		return p.(*domain.TokenPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityProvider) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockIdentityProvider) UserInfo(ctx context.Context, accessToken string) (*domain.Identity, error) {
	args := m.Called(ctx, accessToken)
	if i := args.Get(0); i != nil {
		return i.(*domain.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityProvider) CreateUser(ctx context.Context, u *domain.User, password string) error {
	args := m.Called(ctx, u, password)
	return args.Error(0)
}

func (m *mockIdentityProvider) DeleteUser(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// --- event publisher mock ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockEvents) PublishAddressCreated(ctx context.Context, a *domain.Address) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockEvents) PublishAddressUpdated(ctx context.Context, a *domain.Address) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockEvents) PublishAddressDefaultChanged(ctx context.Context, userID, addressID string, typ domain.AddressType) error {
	args := m.Called(ctx, userID, addressID, typ)
	return args.Error(0)
}

// relaxedEvents returns an event publisher mock that accepts any publish.
func relaxedEvents() *mockEvents {
	ev := &mockEvents{}
	ev.On("PublishUserRegistered", mock.Anything, mock.Anything).Return(nil).Maybe()
	ev.On("PublishAddressCreated", mock.Anything, mock.Anything).Return(nil).Maybe()
	ev.On("PublishAddressUpdated", mock.Anything, mock.Anything).Return(nil).Maybe()
	ev.On("PublishAddressDefaultChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return ev
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func typePtr(t domain.AddressType) *domain.AddressType { return &t }
