package msgrepo

import (
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
)

// defaultCapacity is the number of messages buffered before Publish blocks.
const defaultCapacity = 128

// NewService returns an in-process auth.MessageRepository. Messages
// are lost on restart, so it is only suitable for a single API process.
func NewService(options ...ConfigOption) auth.MessageRepository {
	s := service{
		logger:   log.NewNopLogger(),
		capacity: defaultCapacity,
		delay:    delay,
		now:      time.Now,
	}

	for _, opt := range options {
		opt(&s)
	}

	s.messageQueue = make(chan *auth.Message, s.capacity)

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

// WithCapacity sets the size of the message buffer.
func WithCapacity(n int) ConfigOption {
	return func(s *service) {
		s.capacity = n
	}
}
