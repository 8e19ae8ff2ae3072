package token

import (
	"errors"
	"os"
	"strings"
	"time"
)

type Config struct {
	Secret     string        `env:"TOKEN_SECRET"`                            // Secret is the HMAC signing key. Takes precedence over SecretFile.
	SecretFile string        `env:"TOKEN_SECRET_FILE" envDefault:".token_secret"` // SecretFile is the fallback key file read when TOKEN_SECRET is unset.
	MaxAge     time.Duration `env:"TOKEN_MAX_AGE" envDefault:"168h"`         // MaxAge is the token lifetime applied on generation.
}

// signingKey resolves the key material: env var first, key file second.
func (c Config) signingKey() ([]byte, error) {
	if c.Secret != "" {
		return []byte(c.Secret), nil
	}
	if c.SecretFile == "" {
		return nil, ErrMissingSigningKey
	}
	data, err := os.ReadFile(c.SecretFile)
	if err != nil {
		return nil, errors.Join(ErrMissingSigningKey, err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return nil, ErrMissingSigningKey
	}
	return []byte(key), nil
}
