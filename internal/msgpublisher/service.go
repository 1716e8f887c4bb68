// Package msgpublisher writes SMS/Email messages to Kafka.
package msgpublisher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/contactchecker"
)

type service struct {
	logger      log.Logger
	messageRepo auth.MessageRepository
	expireAfter time.Duration
	subject     string
	now         func() time.Time
}

// Send publishes a message with its delivery details to the message
// repository. A failure to publish is a failure to deliver.
func (s *service) Send(ctx context.Context, content, addr string, method auth.DeliveryMethod) error {
	if !contactchecker.Validator(method)(addr) {
		return fmt.Errorf("invalid %s delivery address", method)
	}

	msg := auth.Message{
		Delivery:  method,
		Content:   content,
		Address:   addr,
		ExpiresAt: s.now().Add(s.expireAfter),
	}
	if method == auth.Email {
		msg.Subject = s.subject
	}

	if err := s.messageRepo.Publish(ctx, &msg); err != nil {
		s.logger.Log(
			"message", "failed to publish message",
			"delivery", method,
			"error", err,
			"source", "msgpublisher.Send",
		)
		return fmt.Errorf("failed to publish to repository: %w", err)
	}

	return nil
}
