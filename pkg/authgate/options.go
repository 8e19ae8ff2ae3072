package authgate

import "log/slog"

// config holds middleware configuration.
type config struct {
	bypassPrefixes []string
	log            *slog.Logger
}

func defaultConfig() *config {
	return &config{
		log: slog.Default(),
	}
}

// Option configures the middleware.
type Option func(*config)

// WithBypassPrefixes sets the ordered list of path prefixes exempt from
// authentication, e.g. health probes and public signup routes. Matching is a
// plain prefix check; the first match wins.
func WithBypassPrefixes(prefixes ...string) Option {
	return func(c *config) {
		c.bypassPrefixes = append(c.bypassPrefixes, prefixes...)
	}
}

// WithLogger sets the structured logger used for rejection and failure logs.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}
