package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Duration
	f        func()
	stopped  bool
	fired    bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, deadline: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward, running due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.deadline <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

type cacheMock struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (m *cacheMock) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	return m.err
}

func (m *cacheMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

func TestMonitor_Expiry(t *testing.T) {
	tt := []struct {
		name        string
		steps       func(m *Monitor, c *fakeClock)
		isActive    bool
		clearCalls  int
		expireCalls int
	}{
		{
			name: "Expires after inactivity window",
			steps: func(m *Monitor, c *fakeClock) {
				c.Advance(30 * time.Minute)
			},
			isActive:    false,
			clearCalls:  1,
			expireCalls: 1,
		},
		{
			name: "Active just before window ends",
			steps: func(m *Monitor, c *fakeClock) {
				c.Advance(29*time.Minute + 59*time.Second)
			},
			isActive: true,
		},
		{
			name: "Activity resets the full window",
			steps: func(m *Monitor, c *fakeClock) {
				c.Advance(29 * time.Minute)
				m.Activity(KeyDown)
				c.Advance(29 * time.Minute)
			},
			isActive: true,
		},
		{
			name: "Expires a full window after last activity",
			steps: func(m *Monitor, c *fakeClock) {
				c.Advance(29 * time.Minute)
				m.Activity(Scroll)
				c.Advance(30 * time.Minute)
			},
			isActive:    false,
			clearCalls:  1,
			expireCalls: 1,
		},
		{
			name: "Unknown signals are not activity",
			steps: func(m *Monitor, c *fakeClock) {
				c.Advance(29 * time.Minute)
				m.Activity(Signal("mouse-move"))
				c.Advance(time.Minute)
			},
			isActive:    false,
			clearCalls:  1,
			expireCalls: 1,
		},
		{
			name: "Stop cancels expiry",
			steps: func(m *Monitor, c *fakeClock) {
				m.Stop()
				c.Advance(time.Hour)
			},
			isActive: false,
		},
		{
			name: "Restart replaces the previous timer",
			steps: func(m *Monitor, c *fakeClock) {
				c.Advance(20 * time.Minute)
				m.Start(func() {})
				c.Advance(20 * time.Minute)
			},
			isActive: true,
		},
		{
			name: "Activity after stop does not restart",
			steps: func(m *Monitor, c *fakeClock) {
				m.Stop()
				m.Activity(PointerDown)
				c.Advance(time.Hour)
			},
			isActive: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			clock := &fakeClock{}
			cache := &cacheMock{}
			m := New(cache, WithClock(clock))

			expireCalls := 0
			m.Start(func() { expireCalls++ })
			tc.steps(m, clock)

			if m.Active() != tc.isActive {
				t.Errorf("incorrect active state, want %v got %v", tc.isActive, m.Active())
			}
			if cache.Calls() != tc.clearCalls {
				t.Errorf("incorrect Clear() call count, want %v got %v", tc.clearCalls, cache.Calls())
			}
			if expireCalls != tc.expireCalls {
				t.Errorf("incorrect expiry call count, want %v got %v", tc.expireCalls, expireCalls)
			}
		})
	}
}

func TestMonitor_StaleTimerIgnored(t *testing.T) {
	clock := &fakeClock{}
	cache := &cacheMock{}
	m := New(cache, WithClock(clock), WithTimeout(time.Minute))

	m.Start(func() {
		t.Error("stale timer expired the session")
	})
	stale := clock.timers[0]

	m.Stop()
	m.Start(nil)

	// A timer which fired while being replaced still runs its callback.
	stale.f()

	if !m.Active() {
		t.Error("session ended by stale timer")
	}
	if cache.Calls() != 0 {
		t.Error("credentials cleared by stale timer")
	}
}

func TestMonitor_ClearFailureStillExpires(t *testing.T) {
	clock := &fakeClock{}
	cache := &cacheMock{err: errors.New("disk full")}
	m := New(cache, WithClock(clock))

	expired := false
	m.Start(func() { expired = true })
	clock.Advance(defaultTimeout)

	if !expired {
		t.Error("expiry callback not called")
	}
	if m.Active() {
		t.Error("monitor still active after expiry")
	}
}

func TestMonitor_RealClock(t *testing.T) {
	cache := &cacheMock{}
	m := New(cache, WithTimeout(10*time.Millisecond))

	done := make(chan struct{})
	m.Start(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session did not expire")
	}

	if cache.Calls() != 1 {
		t.Errorf("incorrect Clear() call count, want 1 got %v", cache.Calls())
	}
}
