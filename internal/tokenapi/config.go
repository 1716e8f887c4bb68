package tokenapi

import (
	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
)

// NewService returns an auth.TokenAPI which checks session tokens with
// Verify and ends sessions with Revoke. WithTokenService is required.
func NewService(options ...ConfigOption) auth.TokenAPI {
	s := service{
		logger: log.NewNopLogger(),
	}

	for _, opt := range options {
		opt(&s)
	}

	return &s
}

// ConfigOption configures the token API.
type ConfigOption func(*service)

// WithLogger configures the service with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *service) {
		s.logger = l
	}
}

// WithTokenService sets the TokenService used to validate and revoke
// session tokens.
func WithTokenService(t auth.TokenService) ConfigOption {
	return func(s *service) {
		s.token = t
	}
}
