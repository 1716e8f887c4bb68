package deviceapi

import (
	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
)

// NewService returns a new implementation of auth.DeviceAPI.
func NewService(options ...ConfigOption) auth.DeviceAPI {
	s := service{
		logger: log.NewNopLogger(),
	}

	for _, opt := range options {
		opt(&s)
	}

	return &s
}

// ConfigOption configures the service.
type ConfigOption func(*service)

// WithLogger configures the service with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *service) {
		s.logger = l
	}
}

// WithTrust configures the service with a TrustService.
func WithTrust(t auth.TrustService) ConfigOption {
	return func(s *service) {
		s.trust = t
	}
}
