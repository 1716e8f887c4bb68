package trust

import (
	"context"
	"testing"
	"time"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/crypto"
	"github.com/fmitra/walletauth/internal/memstore"
)

func TestTrustSvc_IsTrusted(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tt := []struct {
		name     string
		register string
		check    string
		elapsed  time.Duration
		trusted  bool
	}{
		{
			name:     "Registered device",
			register: "device-a",
			check:    "device-a",
			elapsed:  time.Hour,
			trusted:  true,
		},
		{
			name:     "Unknown device",
			register: "device-a",
			check:    "device-b",
			elapsed:  time.Hour,
			trusted:  false,
		},
		{
			name:     "Empty device",
			register: "device-a",
			check:    "",
			elapsed:  time.Hour,
			trusted:  false,
		},
		{
			name:     "One second before expiry",
			register: "device-a",
			check:    "device-a",
			elapsed:  defaultDeviceTTL - time.Second,
			trusted:  true,
		},
		{
			name:     "At expiry",
			register: "device-a",
			check:    "device-a",
			elapsed:  defaultDeviceTTL,
			trusted:  false,
		},
		{
			name:     "One second after expiry",
			register: "device-a",
			check:    "device-a",
			elapsed:  defaultDeviceTTL + time.Second,
			trusted:  false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			now := start
			svc := NewService(
				WithRepoManager(memstore.NewClient()),
				WithClock(func() time.Time { return now }),
			)

			if err := svc.Register(ctx, "account-id", tc.register); err != nil {
				t.Fatal("failed to register device:", err)
			}

			now = start.Add(tc.elapsed)
			trusted, err := svc.IsTrusted(ctx, "account-id", tc.check)
			if err != nil {
				t.Fatal("failed to check device:", err)
			}
			if trusted != tc.trusted {
				t.Errorf("incorrect trust result, want %v got %v", tc.trusted, trusted)
			}

			trusted, err = svc.IsTrusted(ctx, "other-account", tc.check)
			if err != nil {
				t.Fatal("failed to check device:", err)
			}
			if trusted {
				t.Error("device trusted for another account")
			}
		})
	}
}

func TestTrustSvc_RegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	svc := NewService(
		WithRepoManager(memstore.NewClient()),
		WithClock(func() time.Time { return now }),
	)

	if err := svc.Register(ctx, "account-id", "device-a"); err != nil {
		t.Fatal("failed to register device:", err)
	}

	now = start.Add(24 * time.Hour)
	if err := svc.Register(ctx, "account-id", "device-a"); err != nil {
		t.Fatal("failed to register device:", err)
	}

	devices, err := svc.List(ctx, "account-id")
	if err != nil {
		t.Fatal("failed to list devices:", err)
	}
	if len(devices) != 1 {
		t.Fatalf("incorrect device count, want 1 got %v", len(devices))
	}
	if !devices[0].ExpiresAt.Equal(start.Add(defaultDeviceTTL)) {
		t.Error("trusted device expiry was extended")
	}
	if devices[0].DeviceHash == "device-a" {
		t.Error("raw device ID was stored")
	}

	if err = svc.Register(ctx, "account-id", ""); auth.ErrorCode(err) != auth.EBadRequest {
		t.Errorf("incorrect error code, want %s got %s", auth.EBadRequest, auth.ErrorCode(err))
	}
}

func TestTrustSvc_Revoke(t *testing.T) {
	ctx := context.Background()
	svc := NewService(WithRepoManager(memstore.NewClient()))

	if err := svc.Register(ctx, "account-id", "device-a"); err != nil {
		t.Fatal("failed to register device:", err)
	}

	hash, err := crypto.Hash("device-a")
	if err != nil {
		t.Fatal("failed to hash device:", err)
	}

	if err = svc.Revoke(ctx, "account-id", hash); err != nil {
		t.Fatal("failed to revoke device:", err)
	}

	trusted, err := svc.IsTrusted(ctx, "account-id", "device-a")
	if err != nil {
		t.Fatal("failed to check device:", err)
	}
	if trusted {
		t.Error("revoked device is trusted")
	}

	devices, err := svc.List(ctx, "account-id")
	if err != nil {
		t.Fatal("failed to list devices:", err)
	}
	if len(devices) != 0 {
		t.Errorf("revoked device listed: %+v", devices)
	}

	err = svc.Revoke(ctx, "account-id", hash)
	if auth.ErrorCode(err) != auth.ENotFound {
		t.Errorf("incorrect error code, want %s got %s", auth.ENotFound, auth.ErrorCode(err))
	}
}
