package msgconsumer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
)

// throttlePoll is how often a throttled worker checks for capacity.
const throttlePoll = 50 * time.Millisecond

// throttle limits deliveries over a single channel across all workers.
type throttle struct {
	lmt *limiter.Limiter
}

func newThrottle(t string) (*throttle, error) {
	limit, per, err := parseThrottle(t)
	if err != nil {
		return nil, err
	}

	perSecond := float64(limit) / per.Seconds()
	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetBurst(limit)

	return &throttle{lmt: lmt}, nil
}

// Wait blocks until a delivery may proceed.
func (t *throttle) Wait(ctx context.Context) error {
	for t.lmt.LimitReached("delivery") {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(throttlePoll):
		}
	}
	return nil
}

func parseThrottle(t string) (int, time.Duration, error) {
	var per time.Duration

	split := strings.Split(t, "/")
	if len(split) != 2 {
		return 0, per, fmt.Errorf("throttle format requires limit and duration (e.g. 5/m)")
	}

	limit, err := strconv.Atoi(split[0])
	if err != nil || limit < 1 {
		return 0, per, fmt.Errorf("limit must be a positive integer")
	}

	durations := map[string]time.Duration{
		"s": time.Second,
		"m": time.Minute,
		"h": time.Hour,
		"d": 24 * time.Hour,
	}
	per, ok := durations[split[1]]
	if !ok {
		return 0, per, fmt.Errorf("duration must be one of s, m, h, d")
	}

	return limit, per, nil
}
