package authgate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tenantgate/pkg/session"
	"github.com/dmitrymomot/tenantgate/pkg/tenantpool"
	"github.com/dmitrymomot/tenantgate/pkg/token"
)

// TokenParser decodes and verifies a bearer token into claims.
// Satisfied by *token.Service.
type TokenParser interface {
	Parse(tokenString string) (token.Claims, error)
}

// PoolResolver is the non-creating tenant pool lookup. Satisfied by
// *tenantpool.Manager. The gate never triggers catalog-based pool creation
// on the request hot path: tenants must be pre-provisioned.
type PoolResolver interface {
	Lookup(tenantID string) (tenantpool.Pool, bool)
}

// SessionChecker confirms the claims map to a live session in the tenant
// database. Satisfied by *session.Validator.
type SessionChecker interface {
	IsValid(ctx context.Context, claims token.Claims, db session.Querier) (bool, error)
}

// errorEnvelope is the stable wire contract for error responses:
// {"message": <string>, "data": ""}.
type errorEnvelope struct {
	Message string `json:"message"`
	Data    string `json:"data"`
}

const (
	// unauthorizedMessage is invariant across all auth failures so the
	// response never reveals which check rejected the request.
	unauthorizedMessage = "Invalid token!"
	internalMessage     = "Internal server error!"
)

// Middleware authenticates every request and scopes it to the caller's
// tenant. The per-request flow is: bypass check, bearer token extraction,
// token decoding, tenant pool resolution, session verification, context
// injection. Any failure short-circuits before the handler runs.
//
// All client-facing auth failures collapse into one 401 with an invariant
// body; the precise reason is only visible in server-side logs.
// Infrastructure failures (timeouts, broken tenant databases) return 5xx and
// log the tenant context at error level.
func Middleware(parser TokenParser, pools PoolResolver, sessions SessionChecker, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflight and configured prefixes skip authentication
			// entirely, headers untouched. First matching prefix wins.
			if r.Method == http.MethodOptions || matchesPrefix(r.URL.Path, cfg.bypassPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := bearerToken(r)
			if !ok {
				cfg.log.WarnContext(r.Context(), "request rejected: missing bearer token",
					slog.String("path", r.URL.Path))
				unauthorized(w)
				return
			}

			claims, err := parser.Parse(raw)
			if err != nil {
				cfg.log.WarnContext(r.Context(), "request rejected: token decode failed",
					slog.String("path", r.URL.Path), slog.Any("error", err))
				unauthorized(w)
				return
			}

			pool, ok := pools.Lookup(claims.TenantID)
			if !ok {
				cfg.log.WarnContext(r.Context(), "request rejected: tenant not provisioned",
					slog.String("tenant_id", claims.TenantID), slog.String("user", claims.User))
				unauthorized(w)
				return
			}

			live, err := sessions.IsValid(r.Context(), claims, pool)
			if err != nil {
				msg := "session verification failed"
				if errIsTimeout(err) {
					msg = "session verification timed out"
				}
				cfg.log.ErrorContext(r.Context(), msg,
					slog.String("tenant_id", claims.TenantID), slog.String("user", claims.User),
					slog.Any("error", err))
				internalError(w)
				return
			}
			if !live {
				cfg.log.WarnContext(r.Context(), "request rejected: session revoked or unknown",
					slog.String("tenant_id", claims.TenantID), slog.String("user", claims.User))
				unauthorized(w)
				return
			}

			ctx := WithPool(r.Context(), pool)
			ctx = WithClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

const bearerScheme = "bearer "

// bearerToken extracts the token from the Authorization header. The scheme
// match is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) <= len(bearerScheme) {
		return "", false
	}
	if !strings.EqualFold(authHeader[:len(bearerScheme)], bearerScheme) {
		return "", false
	}
	tok := strings.TrimSpace(authHeader[len(bearerScheme):])
	if tok == "" {
		return "", false
	}
	return tok, true
}

func unauthorized(w http.ResponseWriter) {
	writeEnvelope(w, http.StatusUnauthorized, unauthorizedMessage)
}

func internalError(w http.ResponseWriter) {
	writeEnvelope(w, http.StatusInternalServerError, internalMessage)
}

func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Message: message, Data: ""})
}

// errIsTimeout reports whether an error chain carries one of the bounded
// timeout sentinels.
func errIsTimeout(err error) bool {
	return errors.Is(err, session.ErrTimeout) || errors.Is(err, tenantpool.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}
