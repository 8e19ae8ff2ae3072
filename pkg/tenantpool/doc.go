// Package tenantpool manages per-tenant database connection pools for a
// multi-tenant service where every tenant owns a separate database.
//
// A single Manager is created at startup around the main catalog pool. It
// lazily resolves each tenant's database URL from the catalog's "tenants"
// table, opens a pool for it, and caches both for the process lifetime.
// Caches are unbounded and invalidated only explicitly: ClearURLCache /
// ClearAllURLCaches when a catalog row changes, Remove / RemoveTenant when a
// tenant is dropped.
//
// # Concurrency
//
// All methods are safe for arbitrary concurrent use. GetOrCreate is
// intentionally not atomic end to end: two first-time callers racing on the
// same tenant may both open a pool, and the cache converges last-write-wins.
// Each constructed handle remains valid for its holder, so the semantic is
// at-least-once construction rather than exactly-once. The alternative, a
// per-tenant singleflight holding a lock across network I/O, was rejected
// to keep cache reads from ever blocking behind a slow construction.
//
// Lookup is the non-creating read used on the request hot path by the
// authentication gate; only provisioning flows call GetOrCreate.
//
// # Usage
//
//	mgr, err := tenantpool.New(catalogPool, tenantpool.PgxOpener(cfg),
//	    tenantpool.WithLogger(log),
//	    tenantpool.WithTimeout(10*time.Second),
//	)
//	if err != nil { ... }
//	defer mgr.Close()
//
//	pool, err := mgr.GetOrCreate(ctx, "acme")
package tenantpool
