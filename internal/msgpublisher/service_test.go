package msgpublisher

import (
	"context"
	"fmt"
	"testing"
	"time"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/messaging"
	"github.com/fmitra/walletauth/internal/test"
)

func TestMsgPublisher_Send(t *testing.T) {
	tt := []struct {
		name         string
		address      string
		method       auth.DeliveryMethod
		publishMock  func(ctx context.Context, msg *auth.Message) error
		publishCount int
		isFailed     bool
	}{
		{
			name:         "Sends SMS",
			address:      "+6594867353",
			method:       auth.SMS,
			publishCount: 1,
			isFailed:     false,
			publishMock: func(ctx context.Context, msg *auth.Message) error {
				if msg.Delivery != auth.SMS {
					t.Errorf("incorrect delivery method: want %s, got %s", auth.SMS, msg.Delivery)
				}
				if msg.Subject != "" {
					t.Errorf("unexpected SMS subject %s", msg.Subject)
				}
				return nil
			},
		},
		{
			name:         "Fails to send SMS",
			address:      "+6594867353",
			method:       auth.SMS,
			publishCount: 1,
			isFailed:     true,
			publishMock: func(ctx context.Context, msg *auth.Message) error {
				return fmt.Errorf("whoops")
			},
		},
		{
			name:         "Sends email",
			address:      "jane@example.com",
			method:       auth.Email,
			publishCount: 1,
			isFailed:     false,
			publishMock: func(ctx context.Context, msg *auth.Message) error {
				if msg.Delivery != auth.Email {
					t.Errorf("incorrect delivery method: want %s, got %s", auth.Email, msg.Delivery)
				}
				if msg.Subject != messaging.DefaultSubject {
					t.Errorf("incorrect subject %s", msg.Subject)
				}
				return nil
			},
		},
		{
			name:         "Fails to send email",
			address:      "jane@example.com",
			method:       auth.Email,
			publishCount: 1,
			isFailed:     true,
			publishMock: func(ctx context.Context, msg *auth.Message) error {
				return fmt.Errorf("whoops")
			},
		},
		{
			name:         "Rejects invalid address",
			address:      "not-a-phone",
			method:       auth.SMS,
			publishCount: 0,
			isFailed:     true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			messageRepo := test.MessageRepository{
				PublishFn: tc.publishMock,
			}

			ctx := context.Background()
			publisherSvc := NewService(&messageRepo)
			err := publisherSvc.Send(ctx, "Here's your code: 111111", tc.address, tc.method)
			if err != nil && !tc.isFailed {
				t.Error("expected nil error, received:", err)
			}
			if err == nil && tc.isFailed {
				t.Error("expected error, received nil")
			}
			if messageRepo.Calls.Publish != tc.publishCount {
				t.Errorf("incorrect publish count, want %v got %v", tc.publishCount, messageRepo.Calls.Publish)
			}
		})
	}
}

func TestMsgPublisher_Expiry(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	var published *auth.Message
	messageRepo := test.MessageRepository{
		PublishFn: func(ctx context.Context, msg *auth.Message) error {
			published = msg
			return nil
		},
	}

	svc := NewService(&messageRepo, WithExpiry(time.Minute))
	svc.(*service).now = func() time.Time { return now }

	if err := svc.Send(context.Background(), "code", "jane@example.com", auth.Email); err != nil {
		t.Fatal("failed to send message:", err)
	}
	if !published.ExpiresAt.Equal(now.Add(time.Minute)) {
		t.Errorf("incorrect expiry %v", published.ExpiresAt)
	}
	if published.DeliveryAttempts != 0 {
		t.Errorf("incorrect delivery attempts %v", published.DeliveryAttempts)
	}
}
