package authgate

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/tenantgate/pkg/tenantpool"
	"github.com/dmitrymomot/tenantgate/pkg/token"
)

// Private key types prevent collisions with other context keys.
type poolContextKey struct{}
type claimsContextKey struct{}

// WithPool stores the tenant pool in the context. The gate calls this on the
// Authorized path; handlers should only read.
func WithPool(ctx context.Context, pool tenantpool.Pool) context.Context {
	return context.WithValue(ctx, poolContextKey{}, pool)
}

// PoolFromContext retrieves the tenant pool resolved for this request.
func PoolFromContext(ctx context.Context) (tenantpool.Pool, bool) {
	pool, ok := ctx.Value(poolContextKey{}).(tenantpool.Pool)
	return pool, ok
}

// MustPoolFromContext retrieves the tenant pool and panics when it is
// absent. Absence behind the gate is a programming error, not a client
// error: the gate guarantees presence on every Authorized request.
func MustPoolFromContext(ctx context.Context) tenantpool.Pool {
	pool, ok := PoolFromContext(ctx)
	if !ok || pool == nil {
		panic("authgate: no tenant pool in context")
	}
	return pool
}

// WithClaims stores the verified claims in the context.
func WithClaims(ctx context.Context, claims token.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext retrieves the verified claims for this request.
func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(token.Claims)
	return claims, ok
}

// LoggerExtractor returns a ContextExtractor for the logger that annotates
// records with the authenticated tenant id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if claims, ok := ClaimsFromContext(ctx); ok && claims.TenantID != "" {
			return slog.String("tenant_id", claims.TenantID), true
		}
		return slog.Attr{}, false
	}
}
