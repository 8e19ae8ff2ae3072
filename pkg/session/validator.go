package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantgate/pkg/token"
)

// sessionQuery matches the claims triple against the tenant's users table.
const sessionQuery = `SELECT id, username, login_session FROM users WHERE username = $1 AND login_session = $2 LIMIT 1`

// Querier is the single-row query surface the validator needs from a tenant
// pool. Satisfied by *pgxpool.Pool and by the pool handles the tenant pool
// manager hands out.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Info is the session row returned for "who am I" style lookups.
type Info struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	LoginSession string `json:"login_session"`
}

// Validator confirms that a decoded claims triple still corresponds to a
// live, non-revoked session row in the tenant's database. The check runs
// fresh on every request, never cached: logout clears login_session and must
// invalidate all outstanding tokens for that user immediately, regardless of
// their expiry.
type Validator struct {
	log     *slog.Logger
	timeout time.Duration
}

// DefaultTimeout bounds the per-request session query.
const DefaultTimeout = 5 * time.Second

// Option configures the Validator.
type Option func(*Validator)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(v *Validator) {
		if log != nil {
			v.log = log
		}
	}
}

// WithTimeout sets the bounded timeout for the session query.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewValidator creates a session validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		log:     slog.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Find returns the session row matching the claims triple. It returns
// ErrSessionNotFound when no row matches, meaning the session was revoked or
// never existed; infrastructure failures pass through wrapped so callers can
// tell them apart from a revoked session.
func (v *Validator) Find(ctx context.Context, claims token.Claims, db Querier) (Info, error) {
	var info Info

	// A logged-out user has login_session cleared; an empty value in the
	// claims must never match such rows.
	if claims.User == "" || claims.LoginSession == "" {
		return info, ErrSessionNotFound
	}

	queryCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	row := db.QueryRow(queryCtx, sessionQuery, claims.User, claims.LoginSession)
	if err := row.Scan(&info.ID, &info.Username, &info.LoginSession); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Info{}, ErrSessionNotFound
		}
		if errors.Is(queryCtx.Err(), context.DeadlineExceeded) {
			return Info{}, fmt.Errorf("session lookup for %q: %w: %w", claims.User, ErrTimeout, err)
		}
		return Info{}, fmt.Errorf("session lookup for %q: %w", claims.User, err)
	}

	return info, nil
}

// IsValid reports whether the claims triple maps to a live session. The
// error return is nil for a plain revoked/unknown session and non-nil only
// for infrastructure failures, keeping the two outcomes distinguishable.
func (v *Validator) IsValid(ctx context.Context, claims token.Claims, db Querier) (bool, error) {
	_, err := v.Find(ctx, claims, db)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
