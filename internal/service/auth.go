package service

import (
	"context"
	"log/slog"

	"github.com/coregatekit/microservices/internal/domain"
)

// AuthService fronts the identity provider for login, logout and token
// resolution. It holds no state of its own; sessions live in Keycloak.
type AuthService struct {
	idp    IdentityProvider
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(idp IdentityProvider, logger *slog.Logger) *AuthService {
	return &AuthService{
		idp:    idp,
		logger: logger,
	}
}

// Login exchanges credentials for a token pair. A rejected login surfaces as
// a generic unauthorized error regardless of whether the email exists.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	pair, err := s.idp.Login(ctx, email, password)
	if err != nil {
		s.logger.InfoContext(ctx, "login rejected",
			slog.String("email", maskEmail(email)),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "login succeeded",
		slog.String("email", maskEmail(email)),
	)

	return pair, nil
}

// Logout invalidates the session behind the refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (*domain.LogoutResult, error) {
	if err := s.idp.Logout(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &domain.LogoutResult{
		Success: true,
		Message: "logged out successfully",
	}, nil
}

// Introspect resolves the claims behind an access token. The identity gate
// calls this once per protected request; results are never cached, so a
// revoked session is rejected on the next call.
func (s *AuthService) Introspect(ctx context.Context, accessToken string) (*domain.Identity, error) {
	return s.idp.UserInfo(ctx, accessToken)
}
