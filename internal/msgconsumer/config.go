package msgconsumer

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
)

const (
	// defaultWorkers represents the default number of workers to process a queue.
	defaultWorkers = 4
	// defaultMaxAttempts is the number of deliveries tried before a message is dropped.
	defaultMaxAttempts = 3
	// defaultEmailLimit the max amount of email messages we may send at a time.
	defaultEmailLimit = "5/s"
	// defaultSMSLimit is the max amount of SMS messages we may send at a time.
	defaultSMSLimit = "1/s"
)

// NewService returns a new Consumer.
func NewService(r auth.MessageRepository, smsLib auth.SMSer, emailLib auth.Emailer, options ...ConfigOption) (Consumer, error) {
	s := service{
		logger:       log.NewNopLogger(),
		totalWorkers: defaultWorkers,
		maxAttempts:  defaultMaxAttempts,
		emailLimit:   defaultEmailLimit,
		smsLimit:     defaultSMSLimit,
		messageRepo:  r,
		smsLib:       smsLib,
		emailLib:     emailLib,
		now:          time.Now,
	}

	for _, opt := range options {
		opt(&s)
	}

	if s.totalWorkers < 1 {
		return nil, fmt.Errorf("at least one worker is required")
	}

	var err error
	s.throttles = make(map[auth.DeliveryMethod]*throttle)
	if s.throttles[auth.SMS], err = newThrottle(s.smsLimit); err != nil {
		return nil, fmt.Errorf("invalid SMS limit: %w", err)
	}
	if s.throttles[auth.Email], err = newThrottle(s.emailLimit); err != nil {
		return nil, fmt.Errorf("invalid email limit: %w", err)
	}

	return &s, nil
}

// ConfigOption configures the service.
type ConfigOption func(*service)

// WithLogger configures the service with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *service) {
		s.logger = l
	}
}

// WithWorkers determines the total number of workers to process
// a message queue.
func WithWorkers(w int) ConfigOption {
	return func(s *service) {
		s.totalWorkers = w
	}
}

// WithMaxAttempts sets how many times a message is delivered
// before it is dropped.
func WithMaxAttempts(n int) ConfigOption {
	return func(s *service) {
		s.maxAttempts = n
	}
}

// WithSMSLimit sets a limit for the max amount of SMS messages we may send
// at a time, in the form `5/s`.
func WithSMSLimit(limit string) ConfigOption {
	return func(s *service) {
		s.smsLimit = limit
	}
}

// WithEmailLimit sets a limit for the max amount of email messages we may send
// at a time, in the form `5/s`.
func WithEmailLimit(limit string) ConfigOption {
	return func(s *service) {
		s.emailLimit = limit
	}
}
