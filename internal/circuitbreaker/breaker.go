// Package circuitbreaker stops sending requests to an exchange that keeps
// failing at the transport or server level, e.g. during maintenance.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	// FailThreshold consecutive failures open the breaker. Zero disables it.
	FailThreshold int `json:"fail_threshold"`
	// SuccessThreshold probe successes close it again.
	SuccessThreshold int `json:"success_threshold"`
	// Cooldown is how long the breaker stays open before letting probes through.
	Cooldown time.Duration `json:"cooldown"`
}

type Breaker struct {
	mu        sync.Mutex
	config    Config
	now       func() time.Time
	state     State
	failures  int
	successes int
	probing   bool
	openedAt  time.Time
	metrics   MetricsSnapshot
}

type Option func(*Breaker)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

func New(config Config, opts ...Option) *Breaker {
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = 1
	}
	b := &Breaker{config: config, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow reports whether a call may be sent. An open breaker turns half-open
// once the cooldown has passed. A half-open breaker lets one probe through at
// a time and rejects other callers until the probe is recorded.
func (b *Breaker) Allow() bool {
	if b.config.FailThreshold <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics.TotalRequests++

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			b.metrics.RejectedRequests++
			return false
		}
		b.transitionTo(StateHalfOpen)
	}
	if b.state == StateHalfOpen {
		if b.probing {
			b.metrics.RejectedRequests++
			return false
		}
		b.probing = true
	}
	return true
}

// Record feeds the outcome of an allowed call back into the breaker.
func (b *Breaker) Record(success bool) {
	if b.config.FailThreshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.metrics.SuccessRequests++
	} else {
		b.metrics.FailedRequests++
	}

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.config.FailThreshold {
			b.open()
		}
	case StateHalfOpen:
		b.probing = false
		if !success {
			b.open()
			return
		}
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
			b.failures = 0
			b.successes = 0
		}
	case StateOpen:
		// A call allowed before the breaker opened finished late.
		if !success {
			b.openedAt = b.now()
		}
	}
}

func (b *Breaker) open() {
	b.openedAt = b.now()
	b.successes = 0
	b.probing = false
	b.transitionTo(StateOpen)
}

func (b *Breaker) transitionTo(state State) {
	b.state = state
	b.metrics.StateChanges++
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.probing = false
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) Metrics() MetricsSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.metrics
	m.CurrentState = b.state.String()
	return m
}

type MetricsSnapshot struct {
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	RejectedRequests int64
	StateChanges     int32
	CurrentState     string
}
