package messaging

import (
	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
)

// DefaultSubject is the subject line of challenge code emails.
const DefaultSubject = "Your verification code"

// NewService returns an auth.MessagingService which delivers
// messages synchronously through an SMS or email provider.
func NewService(smsLib auth.SMSer, emailLib auth.Emailer, options ...ConfigOption) auth.MessagingService {
	s := service{
		smsLib:   smsLib,
		emailLib: emailLib,
		subject:  DefaultSubject,
		logger:   log.NewNopLogger(),
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

// WithSubject overrides the subject line of emails.
func WithSubject(subject string) ConfigOption {
	return func(s *service) {
		s.subject = subject
	}
}
