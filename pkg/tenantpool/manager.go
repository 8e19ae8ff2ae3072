package tenantpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// catalogQuery resolves a tenant's database URL from the shared catalog.
const catalogQuery = `SELECT id, name, db_url FROM tenants WHERE id = $1`

// Manager owns the per-tenant connection pools. It keeps two lazy,
// process-lifetime caches: tenant id to Pool and tenant id to database URL.
// Both live behind a single RWMutex and are only reachable through the
// Manager's methods, so a reader is never blocked for longer than one
// critical section and no map operation can panic mid-mutation.
//
// The manager is constructed once at startup and passed by reference to all
// request handling; there is no package-level singleton.
type Manager struct {
	catalog CatalogQuerier
	opener  Opener
	log     *slog.Logger
	timeout time.Duration

	mu    sync.RWMutex
	pools map[string]Pool
	urls  map[string]string
}

// New creates a Manager on top of the main catalog pool. The opener is
// invoked for every first-time tenant to construct its pool; use PgxOpener
// in production and a fake in tests.
func New(catalog CatalogQuerier, opener Opener, opts ...Option) (*Manager, error) {
	if catalog == nil {
		return nil, ErrNilCatalog
	}
	if opener == nil {
		return nil, ErrNilOpener
	}

	m := &Manager{
		catalog: catalog,
		opener:  opener,
		log:     slog.Default(),
		timeout: DefaultTimeout,
		pools:   make(map[string]Pool),
		urls:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Lookup returns the cached pool for a tenant. It never creates one: the
// request hot path must only see pre-provisioned tenants, so a miss here
// means the tenant is unknown to this process.
func (m *Manager) Lookup(tenantID string) (Pool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pool, ok := m.pools[tenantID]
	return pool, ok
}

// Add caches a pool under the tenant id, replacing any previous entry.
// The replaced pool, if any, is returned so the caller decides when to
// reclaim it; holders of the old handle are unaffected.
func (m *Manager) Add(tenantID string, pool Pool) (Pool, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}
	if pool == nil {
		return nil, ErrNilPool
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.pools[tenantID]
	m.pools[tenantID] = pool
	return prev, nil
}

// Remove drops the tenant's pool from the cache and closes it. It reports
// whether a pool was cached.
func (m *Manager) Remove(tenantID string) bool {
	m.mu.Lock()
	pool, ok := m.pools[tenantID]
	delete(m.pools, tenantID)
	m.mu.Unlock()

	if ok {
		pool.Close()
	}
	return ok
}

// GetOrCreate returns the tenant's pool, constructing and caching it on
// first use.
//
// The fast path is a shared-lock read. On a miss the database URL is
// resolved (URL cache, then one catalog query on the main pool), a new pool
// is constructed, and the result is cached last-write-wins. The steps are
// deliberately not atomic as a whole: two concurrent first-time callers may
// both construct a pool for the same tenant. Both handles stay valid for
// their holders and are reclaimed independently; construction is
// at-least-once, not exactly-once, and needs no cross-process coordination.
func (m *Manager) GetOrCreate(ctx context.Context, tenantID string) (Pool, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	if pool, ok := m.Lookup(tenantID); ok {
		return pool, nil
	}

	dbURL, err := m.resolveURL(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	openCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	pool, err := m.opener(openCtx, dbURL)
	if err != nil {
		if errors.Is(openCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("tenant %q: %w: %w", tenantID, ErrTimeout, err)
		}
		return nil, fmt.Errorf("tenant %q: %w: %w", tenantID, ErrPoolConstruction, err)
	}

	if prev, err := m.Add(tenantID, pool); err != nil {
		// The constructed pool is still usable; hand it to the immediate
		// caller and make the persisted miss visible to operators.
		m.log.ErrorContext(ctx, "tenant pool constructed but not cached",
			slog.String("tenant_id", tenantID), slog.Any("error", err))
	} else if prev != nil {
		m.log.DebugContext(ctx, "tenant pool cache overwritten by concurrent construction",
			slog.String("tenant_id", tenantID))
	}

	return pool, nil
}

// resolveURL returns the tenant's database URL from the URL cache, falling
// back to a bounded catalog query. The resolved URL is cached for the
// process lifetime; ClearURLCache must be called when the catalog row
// changes, otherwise the stale URL keeps being served.
func (m *Manager) resolveURL(ctx context.Context, tenantID string) (string, error) {
	m.mu.RLock()
	dbURL, ok := m.urls[tenantID]
	m.mu.RUnlock()
	if ok {
		return dbURL, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var rec TenantRecord
	row := m.catalog.QueryRow(queryCtx, catalogQuery, tenantID)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.DBURL); err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("tenant %q: %w", tenantID, ErrTenantNotFound)
		}
		if errors.Is(queryCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("tenant %q catalog lookup: %w: %w", tenantID, ErrTimeout, err)
		}
		return "", fmt.Errorf("tenant %q catalog lookup: %w", tenantID, err)
	}

	m.mu.Lock()
	m.urls[tenantID] = rec.DBURL
	m.mu.Unlock()

	return rec.DBURL, nil
}

// ClearURLCache drops the cached database URL for one tenant. Tenant-admin
// flows must call this whenever the catalog's db_url changes.
func (m *Manager) ClearURLCache(tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.urls, tenantID)
}

// ClearAllURLCaches drops every cached database URL.
func (m *Manager) ClearAllURLCaches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = make(map[string]string)
}

// RemoveTenant removes the tenant's pool and then clears its URL cache
// entry. The pool removal result is authoritative; the URL cache clear is
// best-effort housekeeping after it.
func (m *Manager) RemoveTenant(tenantID string) bool {
	removed := m.Remove(tenantID)
	m.ClearURLCache(tenantID)
	return removed
}

// Tenants returns a snapshot of the tenant ids with a cached pool.
func (m *Manager) Tenants() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.pools))
	for id := range m.pools {
		ids = append(ids, id)
	}
	return ids
}

// Close shuts down every cached pool. Called on graceful shutdown; the
// manager must not be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	pools := m.pools
	m.pools = make(map[string]Pool)
	m.urls = make(map[string]string)
	m.mu.Unlock()

	for _, pool := range pools {
		pool.Close()
	}
}
