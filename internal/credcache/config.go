package credcache

import (
	"github.com/go-kit/kit/log"
)

// defaultSecret ships with every client build.
const defaultSecret = "walletauth/client-cache/v1"

// New returns a Cache backed by store.
func New(store Store, options ...ConfigOption) *Cache {
	c := Cache{
		store:  store,
		secret: []byte(defaultSecret),
		logger: log.NewNopLogger(),
	}

	for _, opt := range options {
		opt(&c)
	}

	return &c
}

// ConfigOption configures the cache.
type ConfigOption func(*Cache)

// WithLogger configures the cache with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithSecret replaces the bundled obfuscation secret. Empty
// secrets are ignored.
func WithSecret(secret string) ConfigOption {
	return func(c *Cache) {
		if secret != "" {
			c.secret = []byte(secret)
		}
	}
}
