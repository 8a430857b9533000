package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coregatekit/microservices/internal/domain"
	apperrors "github.com/coregatekit/microservices/pkg/errors"
	"github.com/coregatekit/microservices/pkg/httputil"
	"github.com/coregatekit/microservices/pkg/logger"
)

// Introspector resolves a bearer token into the caller's identity. The gate
// calls it once per protected request.
type Introspector interface {
	Introspect(ctx context.Context, accessToken string) (*domain.Identity, error)
}

type identityContextKey struct{}
type tokenContextKey struct{}

// IdentityFromContext returns the identity the gate attached to the request,
// or nil on an ungated (public) request.
func IdentityFromContext(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*domain.Identity)
	return identity
}

// TokenFromContext returns the raw bearer token the gate validated, for
// handlers that forward it to the provider.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey{}).(string)
	return token
}

type route struct {
	method string
	path   string
}

// Gate is the bearer-token middleware guarding every route by default.
// Routes are opted out individually via Allow; there is no pattern matching,
// a public route is an exact (method, path) pair. Health and metrics
// endpoints are always public.
type Gate struct {
	introspector Introspector
	public       map[route]struct{}
	logger       *slog.Logger
}

// NewGate creates a gate with an empty public-route table.
func NewGate(introspector Introspector, logger *slog.Logger) *Gate {
	return &Gate{
		introspector: introspector,
		public:       make(map[route]struct{}),
		logger:       logger,
	}
}

// Allow marks one (method, path) pair as public. Public requests skip token
// extraction entirely; the provider is never called for them.
func (g *Gate) Allow(method, path string) {
	g.public[route{method: method, path: path}] = struct{}{}
}

func (g *Gate) isPublic(r *http.Request) bool {
	if _, ok := g.public[route{method: r.Method, path: r.URL.Path}]; ok {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/health/") || r.URL.Path == "/metrics"
}

// Middleware authenticates the request unless its route is public. The token
// must arrive as exactly "Bearer <token>"; any other shape is rejected
// without consulting the provider.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.isPublic(r) || IdentityFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), g.logger)
			return
		}

		identity, err := g.introspector.Introspect(r.Context(), token)
		if err != nil || identity == nil {
			// A provider failure reads the same as a bad token; the caller
			// never learns which it was.
			if err != nil {
				g.logger.DebugContext(r.Context(), "token introspection failed",
					slog.String("error", err.Error()),
				)
			}
			httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), g.logger)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		ctx = context.WithValue(ctx, tokenContextKey{}, token)
		ctx = logger.WithUserID(ctx, identity.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an Authorization header value. The
// header must split into exactly two space-separated parts with a
// case-sensitive "Bearer" scheme.
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
