package shared

import (
	"context"
	"time"
)

// NonceStore remembers issued OAuth state nonces so each one can be redeemed
// at most once.
type NonceStore interface {
	// Remember records a freshly issued nonce for ttl.
	Remember(ctx context.Context, nonce string, ttl time.Duration) error

	// Consume removes the nonce and reports whether it was still outstanding.
	// A second Consume of the same nonce returns false.
	Consume(ctx context.Context, nonce string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// NonceConfig holds configuration for OAuth state nonces
type NonceConfig struct {
	// TTL is how long an issued state stays redeemable.
	// Default: 10 minutes
	TTL time.Duration
}

// DefaultNonceConfig returns the default nonce configuration
func DefaultNonceConfig() NonceConfig {
	return NonceConfig{
		TTL: 10 * time.Minute,
	}
}
