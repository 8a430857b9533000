package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/coregatekit/microservices/internal/domain"
	"github.com/coregatekit/microservices/internal/repository"
	apperrors "github.com/coregatekit/microservices/pkg/errors"
)

// CreateAddressInput carries the fields for a new address. The owner comes
// from the caller's token, never from the payload.
type CreateAddressInput struct {
	Type         domain.AddressType
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	IsDefault    bool
}

// UpdateAddressInput is a partial update; nil fields keep their stored value.
type UpdateAddressInput struct {
	Type         *domain.AddressType
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	PostalCode   *string
	Country      *string
	IsDefault    *bool
}

// AddressService coordinates address CRUD and the default-address invariant:
// at most one default per (user, type) pair, with every change of default
// applied atomically by the repository.
type AddressService struct {
	addresses  repository.AddressRepository
	users      repository.UserRepository
	events     EventPublisher
	logger     *slog.Logger
	production bool
}

// NewAddressService creates a new address service.
func NewAddressService(addresses repository.AddressRepository, users repository.UserRepository, events EventPublisher, logger *slog.Logger, production bool) *AddressService {
	return &AddressService{
		addresses:  addresses,
		users:      users,
		events:     events,
		logger:     logger,
		production: production,
	}
}

// Create adds an address for the user. The user must exist; a default-flagged
// address displaces the current default of its type.
func (s *AddressService) Create(ctx context.Context, userID string, in CreateAddressInput) (*domain.Address, error) {
	if !in.Type.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid address type %q: must be BILLING or SHIPPING", in.Type))
	}

	exists, err := s.users.ExistsByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.InvalidInput("user does not exist")
	}

	now := time.Now().UTC()
	a := &domain.Address{
		ID:           uuid.New().String(),
		UserID:       userID,
		Type:         in.Type,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		City:         in.City,
		State:        in.State,
		PostalCode:   in.PostalCode,
		Country:      in.Country,
		IsDefault:    in.IsDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.addresses.Create(ctx, a); err != nil {
		return nil, err
	}

	if err := s.events.PublishAddressCreated(ctx, a); err != nil {
		s.logger.WarnContext(ctx, "failed to publish address.created event",
			slog.String("address_id", a.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "address created",
		slog.String("address_id", a.ID),
		slog.String("user_id", userID),
		slog.String("type", string(a.Type)),
		slog.Bool("is_default", a.IsDefault),
	)

	return a, nil
}

// List returns the user's addresses, optionally filtered by type. A user with
// no matching addresses reads as not-found rather than an empty list.
func (s *AddressService) List(ctx context.Context, userID string, typ domain.AddressType) ([]domain.Address, error) {
	if typ != "" && !typ.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid address type %q: must be BILLING or SHIPPING", typ))
	}

	addresses, err := s.addresses.ListByUser(ctx, userID, typ)
	if err != nil {
		return nil, err
	}
	if len(addresses) == 0 {
		return nil, &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: "no addresses found",
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	}

	return addresses, nil
}

// Get returns one address scoped to its owner. A foreign or missing id is
// not-found either way.
func (s *AddressService) Get(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	a, err := s.addresses.GetByID(ctx, addressID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("address", addressID)
		}
		return nil, err
	}
	return a, nil
}

// GetDefaults returns the user's default addresses, at most one per type.
func (s *AddressService) GetDefaults(ctx context.Context, userID string) ([]domain.Address, error) {
	addresses, err := s.addresses.ListDefaults(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(addresses) == 0 {
		return nil, &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: "no default addresses found",
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	}

	return addresses, nil
}

// Update applies a partial update to an owned address. Setting IsDefault true
// displaces the current default of the address's effective type, which is the
// patched type when the patch carries one.
func (s *AddressService) Update(ctx context.Context, userID, addressID string, in UpdateAddressInput) (*domain.Address, error) {
	a, err := s.addresses.GetByID(ctx, addressID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("address", addressID)
		}
		return nil, err
	}

	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid address type %q: must be BILLING or SHIPPING", *in.Type))
		}
		a.Type = *in.Type
	}
	if in.AddressLine1 != nil {
		a.AddressLine1 = *in.AddressLine1
	}
	if in.AddressLine2 != nil {
		a.AddressLine2 = *in.AddressLine2
	}
	if in.City != nil {
		a.City = *in.City
	}
	if in.State != nil {
		a.State = *in.State
	}
	if in.PostalCode != nil {
		a.PostalCode = *in.PostalCode
	}
	if in.Country != nil {
		a.Country = *in.Country
	}

	becameDefault := false
	if in.IsDefault != nil {
		becameDefault = *in.IsDefault && !a.IsDefault
		a.IsDefault = *in.IsDefault
	}

	if err := s.addresses.Update(ctx, a); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("address", addressID)
		}
		return nil, err
	}

	if err := s.events.PublishAddressUpdated(ctx, a); err != nil {
		s.logger.WarnContext(ctx, "failed to publish address.updated event",
			slog.String("address_id", a.ID),
			slog.String("error", err.Error()),
		)
	}
	if becameDefault {
		if err := s.events.PublishAddressDefaultChanged(ctx, userID, a.ID, a.Type); err != nil {
			s.logger.WarnContext(ctx, "failed to publish address.default_changed event",
				slog.String("address_id", a.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return a, nil
}

// SetDefault re-points the default of the given type at the given address.
// The address must belong to the user and already be of that type. Calling it
// with the current default is a no-op that still succeeds.
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID string, typ domain.AddressType) (*domain.Address, error) {
	if !typ.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid address type %q: must be BILLING or SHIPPING", typ))
	}

	if err := s.addresses.SetDefault(ctx, userID, addressID, typ); err != nil {
		return nil, err
	}

	a, err := s.addresses.GetByID(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishAddressDefaultChanged(ctx, userID, addressID, typ); err != nil {
		s.logger.WarnContext(ctx, "failed to publish address.default_changed event",
			slog.String("address_id", addressID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "default address changed",
		slog.String("address_id", addressID),
		slog.String("user_id", userID),
		slog.String("type", string(typ)),
	)

	return a, nil
}

// ClearAll removes every address of the user. It exists for integration test
// teardown and refuses to run in production.
func (s *AddressService) ClearAll(ctx context.Context, userID string) (int64, error) {
	if s.production {
		return 0, apperrors.Forbidden("address clearing is disabled in production")
	}

	n, err := s.addresses.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "addresses cleared",
		slog.String("user_id", userID),
		slog.Int64("deleted", n),
	)

	return n, nil
}
