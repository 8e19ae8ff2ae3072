package session

import "errors"

var (
	// ErrSessionNotFound is returned when no users row matches the claims
	// triple: the session was revoked by logout or never existed.
	ErrSessionNotFound = errors.New("session: not found")

	// ErrTimeout marks session lookups that exceeded the validator's bounded
	// timeout. An infrastructure failure, never an auth decision.
	ErrTimeout = errors.New("session: lookup timed out")
)
