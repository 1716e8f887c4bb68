// Package msgconsumer reads SMS/Email messages from Kafka.
package msgconsumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/messaging"
)

// Consumer reads a message stream from Kafka.
type Consumer interface {
	Run(ctx context.Context) error
}

// service consumes messages from a repository into a channel
// to be delivered in parallel through goroutines.
type service struct {
	logger       log.Logger
	smsLib       auth.SMSer
	emailLib     auth.Emailer
	emailLimit   string
	smsLimit     string
	throttles    map[auth.DeliveryMethod]*throttle
	totalWorkers int
	maxAttempts  int
	messageRepo  auth.MessageRepository
	now          func() time.Time
}

// Run retrieves recent messages from the repository and passes
// them into a channel to be consumed by goroutines. It returns once
// the repository stream ends and every queued message is processed.
func (s *service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan *auth.Message)
	wg := s.startWorkers(ctx, queue)
	defer func() {
		close(queue)
		wg.Wait()
	}()

	msgc, errc := s.messageRepo.Recent(ctx)

	for msgc != nil || errc != nil {
		select {
		case msg, ok := <-msgc:
			if !ok {
				msgc = nil
				continue
			}
			select {
			case queue <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err, ok := <-errc:
			if !ok {
				errc = nil
				continue
			}
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// startWorkers starts a finite number of workers to deliver messages found
// in the message queue.
func (s *service) startWorkers(ctx context.Context, queue <-chan *auth.Message) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i := 0; i < s.totalWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range queue {
				s.processMessage(ctx, msg)
			}
		}()
	}
	return &wg
}

// processMessage delivers a message through email or SMS. Failed
// deliveries are re-published until they expire or run out of attempts.
func (s *service) processMessage(ctx context.Context, m *auth.Message) {
	if !s.now().Before(m.ExpiresAt) {
		s.logger.Log(
			"message", "dropping expired message",
			"delivery", m.Delivery,
			"source", "msgconsumer.processMessage",
		)
		return
	}

	if _, ok := s.throttles[m.Delivery]; !ok {
		s.logger.Log(
			"message", "dropping message with unsupported delivery method",
			"delivery", m.Delivery,
			"source", "msgconsumer.processMessage",
		)
		return
	}

	err := s.deliver(ctx, m)
	if err == nil {
		return
	}

	m.DeliveryAttempts++
	if m.DeliveryAttempts >= s.maxAttempts {
		s.logger.Log(
			"message", "dropping undeliverable message",
			"delivery", m.Delivery,
			"attempts", m.DeliveryAttempts,
			"error", err,
			"source", "msgconsumer.processMessage",
		)
		return
	}

	if err = s.messageRepo.Publish(ctx, m); err != nil {
		s.logger.Log(
			"message", "failed to re-publish message",
			"delivery", m.Delivery,
			"error", err,
			"source", "msgconsumer.processMessage",
		)
	}
}

func (s *service) deliver(ctx context.Context, m *auth.Message) error {
	t, ok := s.throttles[m.Delivery]
	if !ok {
		return fmt.Errorf("unsupported delivery method %s", m.Delivery)
	}
	if err := t.Wait(ctx); err != nil {
		return err
	}

	if m.Delivery == auth.SMS {
		return s.smsLib.SMS(ctx, m.Address, m.Content)
	}

	subject := m.Subject
	if subject == "" {
		subject = messaging.DefaultSubject
	}
	return s.emailLib.Email(ctx, m.Address, subject, m.Content)
}
