package challenge

import (
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
)

const (
	defaultCodeLength = 6
	defaultExpiry     = 10 * time.Minute
)

// NewService returns a new ChallengeService.
func NewService(options ...ConfigOption) auth.ChallengeService {
	s := service{
		logger:     log.NewNopLogger(),
		codeLength: defaultCodeLength,
		expiry:     defaultExpiry,
		now:        time.Now,
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

// WithCodeLength configures the number of digits in a code.
func WithCodeLength(length int) ConfigOption {
	return func(s *service) {
		s.codeLength = length
	}
}

// WithExpiry configures how long a code may be verified after issue.
func WithExpiry(d time.Duration) ConfigOption {
	return func(s *service) {
		s.expiry = d
	}
}

// WithClock replaces the service's source of the current time.
func WithClock(now func() time.Time) ConfigOption {
	return func(s *service) {
		s.now = now
	}
}
