// Package msgrepo provides in-process message storage for consumers
// and publishers.
package msgrepo

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
)

// service is an implementation of auth.MessageRepository
type service struct {
	logger       log.Logger
	capacity     int
	messageQueue chan *auth.Message
	delay        func(deliveryAttempts int) time.Duration
	now          func() time.Time
}

// Publish writes an unsent message to the queue. Messages which
// already failed delivery are queued again after a backoff.
func (s *service) Publish(ctx context.Context, msg *auth.Message) error {
	if !s.now().Before(msg.ExpiresAt) {
		return fmt.Errorf("cannot publish expired message")
	}

	if msg.DeliveryAttempts == 0 {
		select {
		case s.messageQueue <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	time.AfterFunc(s.delay(msg.DeliveryAttempts), func() {
		select {
		case s.messageQueue <- msg:
		default:
			s.logger.Log(
				"message", "queue is full, dropping message",
				"delivery", msg.Delivery,
				"source", "msgrepo.Publish",
			)
		}
	})

	return nil
}

// Recent streams published messages until ctx is cancelled.
func (s *service) Recent(ctx context.Context) (<-chan *auth.Message, <-chan error) {
	errc := make(chan error, 1)
	msgc := make(chan *auth.Message)

	go func() {
		defer close(errc)
		defer close(msgc)

		for {
			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case msg := <-s.messageQueue:
				select {
				case msgc <- msg:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			}
		}
	}()

	return msgc, errc
}

// delay calculates the amount of time to wait before
// publishing a message back into the queue
func delay(deliveryAttempts int) time.Duration {
	// Maximum 3 second jitter
	// nolint:gosec // crypto/rand not necessary for jitter
	jitter := time.Duration(rand.Intn(3000)) * time.Millisecond
	minDelay := (time.Duration(deliveryAttempts) * time.Second) * 2
	countdown := jitter + minDelay
	maxCountdown := 30 * time.Second

	if countdown < maxCountdown {
		return countdown
	}

	return maxCountdown
}
