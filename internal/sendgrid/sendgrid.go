// Package sendgrid adapts sendgrid-go to our Email interface.
package sendgrid

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	auth "github.com/fmitra/walletauth"
)

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type service struct {
	client   sender
	fromAddr string
	fromName string
}

// Email delivers an email to an email address.
func (s *service) Email(ctx context.Context, email, subject, message string) error {
	from := mail.NewEmail(s.fromName, s.fromAddr)
	to := mail.NewEmail("", email)
	msg := mail.NewSingleEmail(from, subject, to, message, message)

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid client failed: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid failure received (%d): %s", resp.StatusCode, resp.Body)
	}

	return nil
}

// NewClient returns a new Sendgrid client
func NewClient(apiKey, fromAddr, fromName string) auth.Emailer {
	return &service{
		client:   sendgrid.NewSendClient(apiKey),
		fromAddr: fromAddr,
		fromName: fromName,
	}
}
