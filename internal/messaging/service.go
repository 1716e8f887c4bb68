// Package messaging delivers challenge codes directly through
// SMS and email providers.
package messaging

import (
	"context"
	"fmt"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/contactchecker"
)

type service struct {
	logger   log.Logger
	smsLib   auth.SMSer
	emailLib auth.Emailer
	subject  string
}

// Send delivers a message to an address over the requested channel.
// The provider's error is returned as is.
func (s *service) Send(ctx context.Context, content, addr string, method auth.DeliveryMethod) error {
	if !contactchecker.Validator(method)(addr) {
		return fmt.Errorf("invalid %s delivery address", method)
	}

	var err error
	switch method {
	case auth.SMS:
		err = s.smsLib.SMS(ctx, addr, content)
	case auth.Email:
		err = s.emailLib.Email(ctx, addr, s.subject, content)
	}
	if err != nil {
		s.logger.Log(
			"message", "message delivery failed",
			"delivery", method,
			"error", err,
			"source", "messaging.Send",
		)
		return fmt.Errorf("failed to deliver %s message: %w", method, err)
	}

	return nil
}
