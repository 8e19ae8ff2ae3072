package tenantpool

import (
	"errors"

	"github.com/dmitrymomot/tenantgate/pkg/pg"
)

var (
	// ErrTenantNotFound is returned when the catalog has no row for the
	// requested tenant id.
	ErrTenantNotFound = errors.New("tenantpool: tenant not found in catalog")

	// ErrPoolConstruction is returned when a tenant pool could not be opened
	// from its resolved database URL. There is no automatic retry at this
	// layer.
	ErrPoolConstruction = errors.New("tenantpool: failed to construct tenant pool")

	// ErrTimeout marks catalog lookups or pool construction that exceeded
	// the manager's bounded timeout. Kept distinct from auth failures so
	// operators can separate infrastructure trouble from bad credentials.
	ErrTimeout = errors.New("tenantpool: operation timed out")

	ErrEmptyTenantID = errors.New("tenantpool: empty tenant id")
	ErrNilPool       = errors.New("tenantpool: nil pool")
	ErrNilCatalog    = errors.New("tenantpool: nil catalog querier")
	ErrNilOpener     = errors.New("tenantpool: nil pool opener")
)

func isNoRows(err error) bool {
	return pg.IsNotFoundError(err)
}
