package twilio

import (
	"net/http"
	"strings"
	"time"

	auth "github.com/fmitra/walletauth"
)

// defaultBaseURL sets the default API version for all Twilio requests.
const defaultBaseURL = "https://api.twilio.com/2010-04-01"

const defaultTimeout = 10 * time.Second

// Config holds configuration options for Twilio.
type Config struct {
	baseURL    string
	accountSID string
	authToken  string
	smsSender  string
}

// ConfigOption configures the service.
type ConfigOption func(*client)

// NewClient returns a Twilio client.
func NewClient(options ...ConfigOption) auth.SMSer {
	c := client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(&c)
	}
	return &c
}

// WithConfig configures the service with a Config.
func WithConfig(config Config) ConfigOption {
	return func(c *client) {
		c.accountSID = config.accountSID
		c.authToken = config.authToken
		c.baseURL = strings.TrimSuffix(config.baseURL, "/")
		c.smsSender = config.smsSender
	}
}

// WithDefaults configures a Twilio client with an account SID,
// authentication token and sender number against the live API.
func WithDefaults(accountSID, authToken, smsSender string) ConfigOption {
	return func(c *client) {
		c.accountSID = accountSID
		c.authToken = authToken
		c.baseURL = defaultBaseURL
		c.smsSender = smsSender
	}
}

// WithHTTPClient overrides the HTTP client used for API requests.
func WithHTTPClient(httpClient *http.Client) ConfigOption {
	return func(c *client) {
		c.httpClient = httpClient
	}
}
