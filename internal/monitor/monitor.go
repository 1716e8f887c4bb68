// Package monitor ends an authenticated client session after a period
// without user activity.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Signal is a user interaction that counts as activity.
type Signal string

// Recognized activity signals.
const (
	PointerDown Signal = "pointer-down"
	KeyDown     Signal = "key-down"
	Scroll      Signal = "scroll"
	TouchStart  Signal = "touch-start"
	LineInput   Signal = "line-input"
)

// Clearer removes cached credentials.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Monitor runs a single inactivity timer. Each Start or Activity
// replaces the previous timer, and a generation counter keeps a
// replaced timer from expiring the session if it has already fired.
type Monitor struct {
	logger  log.Logger
	cache   Clearer
	clock   Clock
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
	timer      Timer
	onExpire   func()
	active     bool
}

// Start arms the inactivity timer. onExpire is called after cached
// credentials are cleared. Starting an active Monitor restarts it.
func (m *Monitor) Start(onExpire func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onExpire = onExpire
	m.active = true
	m.arm()
}

// Activity resets the inactivity window. Unknown signals and signals
// received while stopped are ignored.
func (m *Monitor) Activity(signal Signal) bool {
	if !isSignal(signal) {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return false
	}

	m.arm()
	return true
}

// Stop cancels the timer without clearing credentials.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.disarm()
	m.active = false
	m.onExpire = nil
}

// Active reports whether a session is being monitored.
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.active
}

// arm must be called with mu held.
func (m *Monitor) arm() {
	m.disarm()

	generation := m.generation
	m.timer = m.clock.AfterFunc(m.timeout, func() {
		m.expire(generation)
	})
}

// disarm must be called with mu held.
func (m *Monitor) disarm() {
	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Monitor) expire(generation uint64) {
	m.mu.Lock()
	if !m.active || generation != m.generation {
		m.mu.Unlock()
		return
	}

	onExpire := m.onExpire
	m.active = false
	m.timer = nil
	m.onExpire = nil
	m.mu.Unlock()

	if err := m.cache.Clear(context.Background()); err != nil {
		level.Warn(m.logger).Log(
			"message", "failed to clear credentials",
			"error", err,
			"source", "monitor.expire",
		)
	}

	m.logger.Log(
		"message", "session expired after inactivity",
		"timeout", m.timeout,
		"source", "monitor.expire",
	)

	if onExpire != nil {
		onExpire()
	}
}

func isSignal(s Signal) bool {
	switch s {
	case PointerDown, KeyDown, Scroll, TouchStart, LineInput:
		return true
	default:
		return false
	}
}
