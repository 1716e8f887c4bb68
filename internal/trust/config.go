package trust

import (
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
)

const defaultDeviceTTL = 30 * 24 * time.Hour

// NewService returns a new TrustService.
func NewService(options ...ConfigOption) auth.TrustService {
	s := service{
		logger:    log.NewNopLogger(),
		deviceTTL: defaultDeviceTTL,
		now:       time.Now,
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

// WithRepoManager configures the service with a RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *service) {
		s.repoMngr = repoMngr
	}
}

// WithDeviceTTL configures how long a remembered device bypasses
// login challenges.
func WithDeviceTTL(d time.Duration) ConfigOption {
	return func(s *service) {
		s.deviceTTL = d
	}
}

// WithClock replaces the service's source of the current time.
func WithClock(now func() time.Time) ConfigOption {
	return func(s *service) {
		s.now = now
	}
}
