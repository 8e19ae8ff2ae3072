// Package session verifies that decoded token claims still correspond to a
// live login session in the caller's tenant database.
//
// A login session is a server-side value written to the users row at login
// and cleared at logout. Because tokens embed the session value, clearing it
// instantly invalidates every outstanding token for that user. The validator
// therefore queries the tenant database on every request and caches nothing.
// That one extra query per request is the deliberate price of immediate
// revocation.
//
// The validator is stateless; the tenant pool to query is passed per call,
// typically the one the authentication gate resolved for the request.
package session
