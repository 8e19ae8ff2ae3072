// Package pg wires the service to PostgreSQL through the pgx/v5 driver. It
// covers the two kinds of pools this service opens: the single catalog pool
// created at boot (whose failure stops the process) and the per-tenant pools
// opened lazily by the tenant pool manager.
//
// The package keeps a small API surface over battle-tested upstream
// libraries: pgx/v5 for connectivity and goose/v3 for catalog schema
// migrations.
//
//   - Config: declarative pool settings populated from environment variables
//     via github.com/caarlos0/env; DefaultConfig produces the same settings
//     for tenant pools whose URL is resolved at runtime.
//   - Connect: opens a *pgxpool.Pool with linear-backoff retries.
//   - Migrate: applies goose migrations for the tenant catalog before the
//     service starts serving traffic.
//   - Healthcheck: a func(context.Context) error closure for liveness probes.
//
// Error classification helpers (IsNotFoundError, IsDuplicateKeyError,
// IsForeignKeyViolationError) unwrap pgx errors so business logic never
// matches on SQLSTATE strings directly.
package pg
