// Package token implements the signed claims blob that authenticates every
// request to the service. A token is a compact HS256 JWT whose payload binds
// a username, a server-revocable login session, and a tenant identifier.
//
// The package deliberately owns the full encode/verify path instead of
// delegating temporal validation to a third-party parser: expiration is
// checked explicitly in Claims.Valid so revocation behaviour never depends
// on a library default.
//
// # Usage
//
//	svc, err := token.NewFromConfig(cfg)
//	if err != nil {
//	    // missing signing key is a boot failure
//	}
//
//	tok, err := svc.Generate(token.Claims{
//	    User:         "alice",
//	    LoginSession: session,
//	    TenantID:     "acme",
//	})
//
//	claims, err := svc.Parse(tok)
//
// Parse returns one of the package sentinel errors (ErrMalformedToken,
// ErrInvalidSignature, ErrExpiredToken, ErrUnexpectedSigningMethod) so
// callers can log the precise failure while presenting a uniform response
// to clients.
//
// The signing key is resolved at startup from the TOKEN_SECRET environment
// variable, falling back to the file named by TOKEN_SECRET_FILE.
package token
