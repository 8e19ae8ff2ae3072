package tenantpool

import (
	"log/slog"
	"time"
)

// DefaultTimeout bounds catalog lookups and pool construction so a slow
// tenant database cannot starve unrelated requests.
const DefaultTimeout = 10 * time.Second

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets the structured logger used for cache housekeeping events.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithTimeout sets the bounded timeout for catalog lookups and pool
// construction.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}
