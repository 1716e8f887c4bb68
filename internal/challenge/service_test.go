package challenge

import (
	"context"
	"sync"
	"testing"
	"time"

	auth "github.com/fmitra/walletauth"
	"github.com/fmitra/walletauth/internal/memstore"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestChallengeSvc_Issue(t *testing.T) {
	ctx := context.Background()
	repoMngr := memstore.NewClient()
	svc := NewService(WithRepoManager(repoMngr), WithCodeLength(8))

	code, c, err := svc.Issue(ctx, "Jane@Example.com", auth.ChallengeLogin)
	if err != nil {
		t.Fatal("failed to issue challenge:", err)
	}
	if len(code) != 8 {
		t.Errorf("incorrect code length, want 8 got %v", len(code))
	}
	if c.Email != "jane@example.com" {
		t.Errorf("email not normalized: %s", c.Email)
	}
	if c.CodeHash == code {
		t.Error("plain code was stored")
	}
	if c.IsConsumed {
		t.Error("new challenge is consumed")
	}
	if got := c.ExpiresAt.Sub(c.CreatedAt); got != defaultExpiry {
		t.Errorf("incorrect expiry, want %v got %v", defaultExpiry, got)
	}

	_, _, err = svc.Issue(ctx, "jane@example.com", auth.ChallengePurpose("reset"))
	if auth.ErrorCode(err) != auth.EBadRequest {
		t.Errorf("incorrect error code, want %s got %s", auth.EBadRequest, auth.ErrorCode(err))
	}
}

func TestChallengeSvc_VerifySingleUse(t *testing.T) {
	ctx := context.Background()
	svc := NewService(WithRepoManager(memstore.NewClient()))

	code, _, err := svc.Issue(ctx, "jane@example.com", auth.ChallengeLogin)
	if err != nil {
		t.Fatal("failed to issue challenge:", err)
	}

	if err = svc.Verify(ctx, "jane@example.com", code, auth.ChallengeLogin); err != nil {
		t.Fatal("failed to verify challenge:", err)
	}

	err = svc.Verify(ctx, "jane@example.com", code, auth.ChallengeLogin)
	if auth.ErrorCode(err) != auth.EInvalidCode {
		t.Errorf("incorrect error code, want %s got %s", auth.EInvalidCode, auth.ErrorCode(err))
	}
}

func TestChallengeSvc_VerifyExpiry(t *testing.T) {
	tt := []struct {
		name      string
		elapsed   time.Duration
		errorCode auth.ErrCode
	}{
		{
			name:      "Verified just before expiry",
			elapsed:   9*time.Minute + 59*time.Second,
			errorCode: auth.ErrCode(""),
		},
		{
			name:      "Expired at expiry",
			elapsed:   10 * time.Minute,
			errorCode: auth.EExpiredCode,
		},
		{
			name:      "Expired after expiry",
			elapsed:   10*time.Minute + time.Nanosecond,
			errorCode: auth.EExpiredCode,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			clk := &clock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
			svc := NewService(
				WithRepoManager(memstore.NewClient()),
				WithClock(clk.Now),
			)

			code, _, err := svc.Issue(ctx, "jane@example.com", auth.ChallengeLogin)
			if err != nil {
				t.Fatal("failed to issue challenge:", err)
			}

			clk.Advance(tc.elapsed)
			err = svc.Verify(ctx, "jane@example.com", code, auth.ChallengeLogin)
			if auth.ErrorCode(err) != tc.errorCode {
				t.Errorf("incorrect error code, want '%s' got '%s'", tc.errorCode, auth.ErrorCode(err))
			}
		})
	}
}

func TestChallengeSvc_VerifyMatchesExactCode(t *testing.T) {
	ctx := context.Background()
	svc := NewService(WithRepoManager(memstore.NewClient()))

	first, _, err := svc.Issue(ctx, "jane@example.com", auth.ChallengeLogin)
	if err != nil {
		t.Fatal("failed to issue challenge:", err)
	}
	second, _, err := svc.Issue(ctx, "jane@example.com", auth.ChallengeLogin)
	if err != nil {
		t.Fatal("failed to issue challenge:", err)
	}
	if first == second {
		t.Skip("identical codes generated")
	}

	tt := []struct {
		name      string
		email     string
		code      string
		purpose   auth.ChallengePurpose
		errorCode auth.ErrCode
	}{
		{
			name:      "Wrong purpose",
			email:     "jane@example.com",
			code:      first,
			purpose:   auth.ChallengeRegistration,
			errorCode: auth.EInvalidCode,
		},
		{
			name:      "Wrong email",
			email:     "john@example.com",
			code:      first,
			purpose:   auth.ChallengeLogin,
			errorCode: auth.EInvalidCode,
		},
		{
			name:      "Empty code",
			email:     "jane@example.com",
			code:      "",
			purpose:   auth.ChallengeLogin,
			errorCode: auth.EInvalidCode,
		},
		{
			name:      "Older outstanding code",
			email:     "jane@example.com",
			code:      first,
			purpose:   auth.ChallengeLogin,
			errorCode: auth.ErrCode(""),
		},
		{
			name:      "Newer outstanding code",
			email:     "JANE@example.com",
			code:      second,
			purpose:   auth.ChallengeLogin,
			errorCode: auth.ErrCode(""),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Verify(ctx, tc.email, tc.code, tc.purpose)
			if auth.ErrorCode(err) != tc.errorCode {
				t.Errorf("incorrect error code, want '%s' got '%s'", tc.errorCode, auth.ErrorCode(err))
			}
		})
	}
}

func TestChallengeSvc_ConcurrentVerify(t *testing.T) {
	ctx := context.Background()
	svc := NewService(WithRepoManager(memstore.NewClient()))

	code, _, err := svc.Issue(ctx, "jane@example.com", auth.ChallengeRegistration)
	if err != nil {
		t.Fatal("failed to issue challenge:", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Verify(ctx, "jane@example.com", code, auth.ChallengeRegistration)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("challenge verified %d times", successes)
	}
}
