package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregatekit/microservices/internal/domain"
	"github.com/coregatekit/microservices/pkg/httputil"
)

type countingIntrospector struct {
	identity  *domain.Identity
	err       error
	calls     int
	lastToken string
}

func (c *countingIntrospector) Introspect(_ context.Context, accessToken string) (*domain.Identity, error) {
	c.calls++
	c.lastToken = accessToken
	return c.identity, c.err
}

func newGateHandler(introspector *countingIntrospector, next http.Handler) http.Handler {
	gate := NewGate(introspector, testLogger())
	gate.Allow(http.MethodPost, "/api/v1/auth/login")
	gate.Allow(http.MethodPost, "/api/v1/users/register")
	return gate.Middleware(next)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestGate_PublicRouteSkipsIntrospection(t *testing.T) {
	introspector := &countingIntrospector{}
	var reached bool
	h := newGateHandler(introspector, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		assert.Nil(t, IdentityFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, introspector.calls)
}

func TestGate_PublicRouteIsMethodExact(t *testing.T) {
	// Only POST /api/v1/auth/login is public; a GET to the same path is
	// guarded.
	introspector := &countingIntrospector{err: errBoom}
	h := newGateHandler(introspector, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGate_HealthAndMetricsAlwaysPublic(t *testing.T) {
	introspector := &countingIntrospector{}
	h := newGateHandler(introspector, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Zero(t, introspector.calls)
}

func TestGate_MissingTokenRejectedWithoutProviderCall(t *testing.T) {
	headers := map[string]string{
		"no header":       "",
		"wrong scheme":    "Token abc123",
		"lowercase":       "bearer abc123",
		"scheme only":     "Bearer",
		"empty token":     "Bearer ",
		"too many parts":  "Bearer abc 123",
		"comma separator": "Bearer,abc123",
	}

	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			introspector := &countingIntrospector{identity: testIdentity()}
			h := newGateHandler(introspector, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be reached")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Zero(t, introspector.calls)

			resp := decodeEnvelope(t, rec)
			assert.Equal(t, httputil.StatusError, resp.Status)
			assert.Equal(t, "UNAUTHORIZED", resp.Code)
			assert.Equal(t, "authentication required", resp.Message)
		})
	}
}

func TestGate_ValidTokenAttachesIdentity(t *testing.T) {
	identity := testIdentity()
	introspector := &countingIntrospector{identity: identity}

	var reached bool
	h := newGateHandler(introspector, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		got := IdentityFromContext(r.Context())
		require.NotNil(t, got)
		assert.Equal(t, identity.UID, got.UID)
		assert.Equal(t, identity.Email, got.Email)
		assert.Equal(t, "valid-token", TokenFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, introspector.calls)
	assert.Equal(t, "valid-token", introspector.lastToken)
}

func TestGate_ProviderErrorReadsAsInvalidToken(t *testing.T) {
	// A provider outage must not leak through as a 5xx; the caller sees the
	// same 401 as an expired token.
	introspector := &countingIntrospector{err: errBoom}
	h := newGateHandler(introspector, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "invalid or expired token", resp.Message)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestGate_NilIdentityReadsAsInvalidToken(t *testing.T) {
	introspector := &countingIntrospector{}
	h := newGateHandler(introspector, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, introspector.calls)
}

func TestGate_ExistingIdentityPassesThrough(t *testing.T) {
	introspector := &countingIntrospector{}
	identity := testIdentity()

	var reached bool
	h := newGateHandler(introspector, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		assert.Equal(t, identity, IdentityFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	ctx := context.WithValue(req.Context(), identityContextKey{}, identity)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))

	assert.True(t, reached)
	assert.Zero(t, introspector.calls)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc123", "abc123", true},
		{"Bearer a", "a", true},
		{"", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"bearer abc", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"Bearer abc def", "", false},
	}

	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}
