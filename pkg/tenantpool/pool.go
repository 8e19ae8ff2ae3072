package tenantpool

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tenantgate/pkg/pg"
)

// Pool is the handle to a tenant database that downstream code receives.
// It is the minimal surface the service needs from *pgxpool.Pool: a single
// row lookup for session verification, a ping for health probing, and Close
// for reclamation. The handle is cheap to share; all methods are safe for
// concurrent use.
type Pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// CatalogQuerier is the read surface of the main catalog pool. Satisfied by
// *pgxpool.Pool and easily faked in tests.
type CatalogQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Opener constructs a Pool for a resolved tenant database URL.
type Opener func(ctx context.Context, dbURL string) (Pool, error)

// PgxOpener returns an Opener backed by pg.Connect. The config's connection
// string is replaced per call with the resolved tenant URL; every other pool
// setting is shared across tenants.
func PgxOpener(cfg pg.Config) Opener {
	return func(ctx context.Context, dbURL string) (Pool, error) {
		c := cfg
		c.ConnectionString = dbURL
		return pg.Connect(ctx, c)
	}
}

// TenantRecord is a row of the external tenant catalog. Read-only from this
// package's perspective; provisioning flows own the table.
type TenantRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	DBURL string `json:"db_url"`
}
