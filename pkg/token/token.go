package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Header constants required by RFC 7519.
const (
	HeaderType      = "JWT"
	HeaderAlgorithm = "HS256"
)

// Header represents the token header as defined in RFC 7515.
type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims is the payload carried by every access token. It binds a user to a
// server-side login session and to the tenant whose database the request may
// touch. Claims are transient: created on decode, consumed within a single
// request, never persisted.
type Claims struct {
	User         string `json:"user"`
	LoginSession string `json:"login_session"`
	TenantID     string `json:"tenant_id"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
}

// Valid checks the temporal claims against the current time. Expiration is
// enforced here explicitly rather than relying on any parser default, so a
// token past its exp always fails regardless of how it was decoded.
func (c Claims) Valid() error {
	now := time.Now().Unix()
	if c.ExpiresAt > 0 && now > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.ExpiresAt > 0 && c.IssuedAt > 0 && c.ExpiresAt <= c.IssuedAt {
		return ErrMalformedToken
	}
	return nil
}

// Service signs and verifies access tokens using HMAC-SHA256.
// The signing key lives in memory only.
type Service struct {
	signingKey []byte
	maxAge     time.Duration
}

// DefaultMaxAge is the token lifetime applied when none is configured.
const DefaultMaxAge = 7 * 24 * time.Hour

// New creates a token service with the provided signing key.
// The key should be at least 32 bytes for adequate security with HMAC-SHA256.
func New(signingKey []byte, maxAge time.Duration) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Service{signingKey: signingKey, maxAge: maxAge}, nil
}

// NewFromConfig creates a token service with the key resolved from Config:
// the TOKEN_SECRET env var wins, otherwise the key file is read. Missing both
// is a startup failure.
func NewFromConfig(cfg Config) (*Service, error) {
	key, err := cfg.signingKey()
	if err != nil {
		return nil, err
	}
	return New(key, cfg.MaxAge)
}

// Generate signs the given claims and returns the encoded token. Zero
// IssuedAt/ExpiresAt fields are filled in from the current time and the
// configured max age.
func (s *Service) Generate(claims Claims) (string, error) {
	if claims.IssuedAt == 0 {
		claims.IssuedAt = time.Now().Unix()
	}
	if claims.ExpiresAt == 0 {
		claims.ExpiresAt = time.Unix(claims.IssuedAt, 0).Add(s.maxAge).Unix()
	}

	headerJSON, err := json.Marshal(Header{Type: HeaderType, Algorithm: HeaderAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + s.sign(payload), nil
}

// Parse verifies a token and returns its claims. Verification covers the
// structure, the signature (constant-time comparison), the signing algorithm,
// and the expiration time.
func (s *Service) Parse(tokenString string) (Claims, error) {
	var claims Claims

	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return claims, ErrMalformedToken
	}

	payload := parts[0] + "." + parts[1]
	expected := s.sign(payload)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return claims, ErrInvalidSignature
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return claims, errors.Join(ErrMalformedToken, err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return claims, errors.Join(ErrMalformedToken, err)
	}
	// Reject tokens using unexpected algorithms to prevent algorithm
	// confusion attacks.
	if header.Algorithm != HeaderAlgorithm {
		return claims, ErrUnexpectedSigningMethod
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return claims, errors.Join(ErrMalformedToken, err)
	}
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return claims, errors.Join(ErrMalformedToken, err)
	}

	if err := claims.Valid(); err != nil {
		return claims, err
	}
	return claims, nil
}

// sign creates an HMAC-SHA256 signature for the given payload, returned as
// base64url without padding per RFC 7515.
func (s *Service) sign(payload string) string {
	h := hmac.New(sha256.New, s.signingKey)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

func base64URLEncode(data []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(data), "=")
}

// base64URLDecode restores the padding tokens omit per RFC 7515 before
// handing the string to Go's decoder.
func base64URLDecode(s string) ([]byte, error) {
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}
