package mail

import (
	"net/smtp"

	auth "github.com/fmitra/walletauth"
)

// NewService returns a new mailing service.
func NewService(configuration ConfigOption) auth.Emailer {
	s := service{}
	configuration(&s)
	return &s
}

// Config holds configuration options for the service.
type Config struct {
	serverAddr string
	fromAddr   string
	fromName   string
	auth       smtp.Auth
	sendFn     sendFunc
}

// ConfigOption configures the service.
type ConfigOption func(*service)

// WithConfig configures the service with a Config.
func WithConfig(config Config) ConfigOption {
	return func(s *service) {
		s.serverAddr = config.serverAddr
		s.fromAddr = config.fromAddr
		s.fromName = config.fromName
		s.auth = config.auth
		s.sendFn = config.sendFn
	}
}

// WithDefaults configures the service to deliver through an SMTP
// relay with net/smtp. Authentication is skipped if username is empty.
func WithDefaults(serverAddr, fromAddr, fromName, username, password, host string) ConfigOption {
	return func(s *service) {
		s.serverAddr = serverAddr
		s.fromAddr = fromAddr
		s.fromName = fromName
		s.sendFn = smtp.SendMail
		if username != "" {
			s.auth = smtp.PlainAuth("", username, password, host)
		}
	}
}
