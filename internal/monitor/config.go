package monitor

import (
	"time"

	"github.com/go-kit/kit/log"
)

const defaultTimeout = 30 * time.Minute

// New returns a stopped Monitor which clears cache when a session
// expires.
func New(cache Clearer, options ...ConfigOption) *Monitor {
	m := Monitor{
		logger:  log.NewNopLogger(),
		cache:   cache,
		clock:   realClock{},
		timeout: defaultTimeout,
	}

	for _, opt := range options {
		opt(&m)
	}

	return &m
}

// ConfigOption configures the monitor.
type ConfigOption func(*Monitor)

// WithLogger configures the monitor with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(m *Monitor) {
		m.logger = l
	}
}

// WithTimeout sets the inactivity window. The default is 30 minutes.
func WithTimeout(d time.Duration) ConfigOption {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock configures the monitor with a Clock.
func WithClock(c Clock) ConfigOption {
	return func(m *Monitor) {
		m.clock = c
	}
}
