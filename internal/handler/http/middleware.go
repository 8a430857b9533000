package http

import (
	"net/http"
	"strings"

	"github.com/coregatekit/microservices/pkg/httputil"
)

// ContentTypeJSON rejects mutating requests whose Content-Type is not
// application/json. GET and DELETE pass through unless they carry a body.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requiresJSONBody(r) && !isJSONContentType(r.Header.Get("Content-Type")) {
			httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
				Status:  httputil.StatusError,
				Message: "Content-Type must be application/json",
				Code:    "UNSUPPORTED_MEDIA_TYPE",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requiresJSONBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return r.ContentLength > 0
}

func isJSONContentType(ct string) bool {
	// Media type parameters (charset) are allowed after the type.
	return strings.HasPrefix(ct, "application/json")
}

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	AllowedOrigins []string
	Environment    string
}

const (
	corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsAllowedHeaders = "Accept, Authorization, Content-Type, X-Correlation-ID"
	corsMaxAge         = "3600"
)

// CORS returns a middleware that sets Cross-Origin Resource Sharing headers
// and short-circuits preflight requests. Development (or a "*" entry in the
// allow list) answers every origin with a wildcard; otherwise the request
// Origin must match the configured list exactly to be echoed back.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	wildcard := cfg.Environment == "development"
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			wildcard = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setCORSHeaders(w, r, wildcard, allowed)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, wildcard bool, allowed map[string]struct{}) {
	h := w.Header()

	switch origin := r.Header.Get("Origin"); {
	case wildcard:
		h.Set("Access-Control-Allow-Origin", "*")
	case origin != "":
		if _, ok := allowed[origin]; ok {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
		}
	}

	h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
	h.Set("Access-Control-Max-Age", corsMaxAge)
}
