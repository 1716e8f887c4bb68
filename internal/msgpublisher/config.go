package msgpublisher

import (
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/messaging"
)

// defaultExpiry matches the lifetime of a challenge code. A code
// delivered after it expires is useless.
const defaultExpiry = time.Minute * 10

// NewService returns an auth.MessagingService which queues
// messages for delivery by a consumer.
func NewService(r auth.MessageRepository, options ...ConfigOption) auth.MessagingService {
	s := service{
		messageRepo: r,
		expireAfter: defaultExpiry,
		subject:     messaging.DefaultSubject,
		logger:      log.NewNopLogger(),
		now:         time.Now,
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

// WithExpiry sets an expiry time for a message to complete sending.
func WithExpiry(t time.Duration) ConfigOption {
	return func(s *service) {
		s.expireAfter = t
	}
}
