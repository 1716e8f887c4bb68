package msgrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	auth "github.com/fmitra/walletauth"
)

func TestMsgRepo_Publish(t *testing.T) {
	tt := []struct {
		name     string
		msg      auth.Message
		hasError bool
	}{
		{
			name: "Does not publish after expiry",
			msg: auth.Message{
				ExpiresAt: time.Now().Add(time.Second * -5),
			},
			hasError: true,
		},
		{
			name: "Publishes to queue",
			msg: auth.Message{
				ExpiresAt: time.Now().Add(time.Second * 5),
			},
			hasError: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			svc := NewService()
			err := svc.Publish(ctx, &tc.msg)
			if err != nil && !tc.hasError {
				t.Error("expected nil error, received", err)
			}
			if err == nil && tc.hasError {
				t.Error("expected error, not nil")
			}
		})
	}
}

func TestMsgRepo_Recent(t *testing.T) {
	msg := auth.Message{
		Delivery:  auth.Email,
		Address:   "jane@example.com",
		ExpiresAt: time.Now().Add(time.Second * 5),
	}
	ctx, cancel := context.WithCancel(context.Background())
	svc := NewService()
	err := svc.Publish(ctx, &msg)
	if err != nil {
		t.Error("failed to publish message", err)
	}

	msgc, errc := svc.Recent(ctx)
	select {
	case err = <-errc:
		t.Error("failed to retrieve message", err)
	case m := <-msgc:
		if !cmp.Equal(m, &msg) {
			t.Error("retrieved message does not match", cmp.Diff(m, &msg))
		}
	}

	cancel()
	if err = <-errc; !errors.Is(err, context.Canceled) {
		t.Error("expected cancellation error, received", err)
	}
}

func TestMsgRepo_RepublishAfterDelay(t *testing.T) {
	svc := NewService().(*service)
	svc.delay = func(int) time.Duration { return time.Millisecond }

	msg := auth.Message{
		Delivery:         auth.SMS,
		ExpiresAt:        time.Now().Add(time.Minute),
		DeliveryAttempts: 1,
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := svc.Publish(ctx, &msg); err != nil {
		t.Fatal("failed to publish message:", err)
	}

	msgc, errc := svc.Recent(ctx)
	select {
	case err := <-errc:
		t.Fatal("failed to retrieve message:", err)
	case m := <-msgc:
		if m.DeliveryAttempts != 1 {
			t.Errorf("delivery attempts modified, got %v", m.DeliveryAttempts)
		}
	}
}

func TestDelay(t *testing.T) {
	tt := []struct {
		attempts int
		min      time.Duration
		max      time.Duration
	}{
		{attempts: 1, min: 2 * time.Second, max: 5 * time.Second},
		{attempts: 2, min: 4 * time.Second, max: 7 * time.Second},
		{attempts: 20, min: 30 * time.Second, max: 30 * time.Second},
	}

	for _, tc := range tt {
		d := delay(tc.attempts)
		if d < tc.min || d > tc.max {
			t.Errorf("incorrect delay for %v attempts: %v", tc.attempts, d)
		}
	}
}
