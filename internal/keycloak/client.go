package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coregatekit/microservices/internal/domain"
	apperrors "github.com/coregatekit/microservices/pkg/errors"
	"github.com/coregatekit/microservices/pkg/httpclient"
)

// Config holds the connection settings for a Keycloak realm.
type Config struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string

	// AdminClientID/AdminClientSecret identify the service account used for
	// the admin REST API (user provisioning). When empty the main client
	// credentials are used.
	AdminClientID     string
	AdminClientSecret string
}

// HTTPDoer is the request surface the client needs. It is satisfied by
// httpclient.Client and httpclient.CircuitBreakerClient.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to Keycloak over its OpenID Connect and admin REST endpoints.
// All credential checks and token issuance are delegated here; the service
// never sees a password hash.
type Client struct {
	http   HTTPDoer
	cfg    Config
	logger *slog.Logger

	mu          sync.Mutex
	adminToken  string
	adminExpiry time.Time
}

// New creates a Keycloak client on top of the given HTTP doer.
func New(doer HTTPDoer, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		http:   doer,
		cfg:    cfg,
		logger: logger,
	}
}

// tokenResponse is the token endpoint's success payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// errorResponse covers both the OIDC error shape and the admin API's.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorMessage     string `json:"errorMessage"`
}

func (e errorResponse) message() string {
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return e.Error
}

func (c *Client) realmURL(parts ...string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/realms/" + c.cfg.Realm + strings.Join(parts, "")
}

func (c *Client) adminURL(parts ...string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/admin/realms/" + c.cfg.Realm + strings.Join(parts, "")
}

// Login exchanges user credentials for a token pair via the password grant.
// Rejected credentials come back as an unauthorized error without detail, so
// callers cannot distinguish a wrong password from an unknown user.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"username":      {username},
		"password":      {password},
	}

	resp, err := c.postForm(ctx, c.realmURL("/protocol/openid-connect/token"), form)
	if err != nil {
		return nil, c.upstreamError("login", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.drainError(ctx, "login rejected", resp)
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}, nil
}

// Logout invalidates the session behind the given refresh token.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"refresh_token": {refreshToken},
	}

	resp, err := c.postForm(ctx, c.realmURL("/protocol/openid-connect/logout"), form)
	if err != nil {
		return c.upstreamError("logout", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		c.drainError(ctx, "logout rejected", resp)
		return apperrors.Unauthorized("invalid refresh token")
	}

	return nil
}

// UserInfo resolves the claims behind an access token via the userinfo
// endpoint. An expired, revoked or malformed token reads as unauthorized.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.realmURL("/protocol/openid-connect/userinfo"), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, c.upstreamError("userinfo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.drainError(ctx, "userinfo rejected", resp)
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	var identity domain.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}

	return &identity, nil
}

// createUserRequest is the admin API's user representation, reduced to the
// fields we set. The uid attribute carries our users table id so tokens can
// be mapped back without a database lookup.
type createUserRequest struct {
	Username      string              `json:"username"`
	Email         string              `json:"email"`
	FirstName     string              `json:"firstName"`
	LastName      string              `json:"lastName"`
	Enabled       bool                `json:"enabled"`
	EmailVerified bool                `json:"emailVerified"`
	Attributes    map[string][]string `json:"attributes"`
	Credentials   []credential        `json:"credentials"`
}

type credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// CreateUser provisions the user in Keycloak with their password and the uid
// attribute pointing at our profile row.
func (c *Client) CreateUser(ctx context.Context, u *domain.User, password string) error {
	token, err := c.getAdminToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(createUserRequest{
		Username:      u.Email,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Enabled:       true,
		EmailVerified: false,
		Attributes:    map[string][]string{"uid": {u.ID}},
		Credentials: []credential{
			{Type: "password", Value: password, Temporary: false},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal create user request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.adminURL("/users"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create user request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return c.upstreamError("create user", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusConflict:
		c.drainError(ctx, "create user conflict", resp)
		return apperrors.Conflict("user with this email already exists")
	default:
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return fmt.Errorf("keycloak create user: status %d: %s", resp.StatusCode, er.message())
	}
}

// DeleteUser removes the Keycloak account registered under the given email.
// A missing account is not an error; provisioning may have failed half-way.
func (c *Client) DeleteUser(ctx context.Context, email string) error {
	token, err := c.getAdminToken(ctx)
	if err != nil {
		return err
	}

	lookup := c.adminURL("/users") + "?exact=true&email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookup, http.NoBody)
	if err != nil {
		return fmt.Errorf("create user lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return c.upstreamError("lookup user", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("keycloak user lookup: status %d", resp.StatusCode)
	}

	var users []struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return fmt.Errorf("decode user lookup response: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	del, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.adminURL("/users/", users[0].ID), http.NoBody)
	if err != nil {
		return fmt.Errorf("create user delete request: %w", err)
	}
	del.Header.Set("Authorization", "Bearer "+token)

	dresp, err := c.http.Do(ctx, del)
	if err != nil {
		return c.upstreamError("delete user", err)
	}
	defer dresp.Body.Close()

	if dresp.StatusCode != http.StatusNoContent && dresp.StatusCode != http.StatusOK {
		return fmt.Errorf("keycloak delete user: status %d", dresp.StatusCode)
	}

	return nil
}

// getAdminToken returns a cached service-account token, refreshing it via the
// client_credentials grant shortly before expiry.
func (c *Client) getAdminToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.adminToken != "" && time.Now().Before(c.adminExpiry) {
		return c.adminToken, nil
	}

	clientID, clientSecret := c.cfg.AdminClientID, c.cfg.AdminClientSecret
	if clientID == "" {
		clientID, clientSecret = c.cfg.ClientID, c.cfg.ClientSecret
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}

	resp, err := c.postForm(ctx, c.realmURL("/protocol/openid-connect/token"), form)
	if err != nil {
		return "", c.upstreamError("admin token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.drainError(ctx, "admin token rejected", resp)
		return "", apperrors.ServiceUnavailable("identity provider rejected service credentials")
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode admin token response: %w", err)
	}

	c.adminToken = tr.AccessToken
	// Refresh a little early so an in-flight request never carries a token
	// that expires mid-call.
	c.adminExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - 10*time.Second)

	return c.adminToken, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.http.Do(ctx, req)
}

// upstreamError normalizes transport failures, including an open circuit
// breaker, into a service-unavailable error.
func (c *Client) upstreamError(op string, err error) error {
	if errors.Is(err, httpclient.ErrCircuitOpen) {
		return apperrors.ServiceUnavailable("identity provider unreachable")
	}
	return apperrors.Wrap(apperrors.ErrServiceUnavail, fmt.Sprintf("keycloak %s: %v", op, err))
}

// drainError logs the provider's error payload at debug level and discards
// the rest of the body so the connection can be reused.
func (c *Client) drainError(ctx context.Context, msg string, resp *http.Response) {
	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&er); err == nil {
		c.logger.DebugContext(ctx, msg,
			slog.Int("status", resp.StatusCode),
			slog.String("detail", er.message()),
		)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
}
