package token

import (
	"io"
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/entropy"
)

const (
	defaultPreAuthExpiry = time.Minute * 10
	defaultSessionExpiry = time.Hour * 24 * 7
	defaultIssuer        = "walletauth"
)

// NewService returns a new TokenService.
func NewService(options ...ConfigOption) auth.TokenService {
	s := service{
		logger:        log.NewNopLogger(),
		preAuthExpiry: defaultPreAuthExpiry,
		sessionExpiry: defaultSessionExpiry,
		issuer:        defaultIssuer,
		now:           time.Now,
	}

	s.entropy = entropy.New()

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

// WithDB configures the service with a redis DB used to
// record revoked tokens. Without it, Revoke falls back to
// login history records.
func WithDB(db Rediser) ConfigOption {
	return func(s *service) {
		s.db = db
	}
}

// WithRepoManager configures the service with a new RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *service) {
		s.repoMngr = repoMngr
	}
}

// WithEntropy configures the service with entropy for token IDs.
func WithEntropy(e io.Reader) ConfigOption {
	return func(s *service) {
		s.entropy = e
	}
}

// WithPreAuthExpiry defines how long pre-authorized tokens are valid for.
// The default value is 10 minutes.
func WithPreAuthExpiry(expiresIn time.Duration) ConfigOption {
	return func(s *service) {
		s.preAuthExpiry = expiresIn
	}
}

// WithSessionExpiry defines how long session tokens are valid for.
// The default value is 7 days.
func WithSessionExpiry(expiresIn time.Duration) ConfigOption {
	return func(s *service) {
		s.sessionExpiry = expiresIn
	}
}

// WithSecret configures the service with a secret value
// for signing functions.
func WithSecret(secret string) ConfigOption {
	return func(s *service) {
		s.secret = []byte(secret)
	}
}

// WithIssuer is the issuer identity for the JWT
// token.
func WithIssuer(issuer string) ConfigOption {
	return func(s *service) {
		s.issuer = issuer
	}
}
