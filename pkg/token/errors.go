package token

import "errors"

var (
	ErrMissingSigningKey       = errors.New("token: missing signing key")
	ErrMalformedToken          = errors.New("token: malformed token")
	ErrInvalidSignature        = errors.New("token: invalid signature")
	ErrExpiredToken            = errors.New("token: token is expired")
	ErrUnexpectedSigningMethod = errors.New("token: unexpected signing method")
)
