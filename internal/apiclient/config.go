package apiclient

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/fmitra/walletauth/internal/credcache"
)

const defaultTimeout = 15 * time.Second

// New returns a Client for the API at baseURL which keeps credentials
// in cache.
func New(baseURL string, cache *credcache.Cache, options ...ConfigOption) *Client {
	c := Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cache:      cache,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.NewNopLogger(),
	}

	for _, opt := range options {
		opt(&c)
	}

	return &c
}

// ConfigOption configures the client.
type ConfigOption func(*Client)

// WithLogger configures the client with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithHTTPClient overrides the HTTP client used for API requests.
func WithHTTPClient(httpClient *http.Client) ConfigOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}
