// Package authgate is the authentication middleware guarding every request
// to the multi-tenant API. It turns a bearer token into a verified,
// tenant-scoped execution context: the request either reaches the handler
// with the tenant's database pool and claims injected into its context, or
// it is rejected before the handler runs.
//
// The per-request state machine:
//
//	bypass check → token extraction → token decoding →
//	tenant resolution → session verification → authorized
//
// OPTIONS requests and configured path prefixes bypass authentication
// unconditionally. Tenant resolution uses the pool manager's non-creating
// lookup, so an unknown tenant can never trigger catalog queries or pool
// construction from the hot path.
//
// Every authentication failure returns the same 401 body,
// {"message":"Invalid token!","data":""}, deliberately hiding which check
// failed; the reasons are distinguished in structured logs only.
// Infrastructure failures return 500 and log tenant context at error level.
//
// Handlers read the injected pool with PoolFromContext or, when running
// strictly behind the gate, MustPoolFromContext.
package authgate
