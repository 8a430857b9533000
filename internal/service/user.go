package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coregatekit/microservices/internal/domain"
	"github.com/coregatekit/microservices/internal/repository"
	apperrors "github.com/coregatekit/microservices/pkg/errors"
)

// RegisterInput carries the fields needed to register a new user. The
// password passes straight through to the identity provider and is never
// persisted locally.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// UserService handles user registration and profile lifecycle.
type UserService struct {
	users      repository.UserRepository
	idp        IdentityProvider
	events     EventPublisher
	logger     *slog.Logger
	production bool
}

// NewUserService creates a new user service. production guards the
// destructive test-support operations.
func NewUserService(users repository.UserRepository, idp IdentityProvider, events EventPublisher, logger *slog.Logger, production bool) *UserService {
	return &UserService{
		users:      users,
		idp:        idp,
		events:     events,
		logger:     logger,
		production: production,
	}
}

// Register creates the local profile and provisions the matching Keycloak
// account carrying the profile id as the uid attribute. A duplicate email is
// a conflict. If provisioning fails the profile row is rolled back so the two
// stores cannot drift.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	_, err := s.users.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, apperrors.Conflict("user with this email already exists")
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.New().String(),
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.idp.CreateUser(ctx, user, in.Password); err != nil {
		// Roll the profile back so a retry does not hit the duplicate check.
		if delErr := s.users.DeleteByEmail(ctx, user.Email); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back profile after provisioning failure",
				slog.String("user_id", user.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, err
	}

	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", maskEmail(user.Email)),
	)

	return user, nil
}

// GetProfile returns the profile behind the given user id.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, err
	}
	return user, nil
}

// ClearUserData removes the user's Keycloak account, profile and addresses.
// It exists for integration test teardown and refuses to run in production.
func (s *UserService) ClearUserData(ctx context.Context, email string) error {
	if s.production {
		return apperrors.Forbidden("user data clearing is disabled in production")
	}

	if err := s.idp.DeleteUser(ctx, email); err != nil {
		return err
	}

	// Addresses go with the profile via the foreign key cascade.
	if err := s.users.DeleteByEmail(ctx, email); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("user", email)
		}
		return err
	}

	s.logger.InfoContext(ctx, "user data cleared",
		slog.String("email", maskEmail(email)),
	)

	return nil
}
