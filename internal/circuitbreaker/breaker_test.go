package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func newTestBreaker(failThreshold, successThreshold int) (*Breaker, *clock) {
	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New(Config{
		FailThreshold:    failThreshold,
		SuccessThreshold: successThreshold,
		Cooldown:         30 * time.Second,
	}, WithClock(c.Now))
	return b, c
}

func TestState_String(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"closed", StateClosed, "CLOSED"},
		{"open", StateOpen, "OPEN"},
		{"half_open", StateHalfOpen, "HALF_OPEN"},
		{"unknown", State(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker(3, 1)

	b.Record(false)
	b.Record(false)
	b.Record(true)
	assert.Equal(t, 0, b.Failures(), "a success resets the streak")

	for i := 0; i < 3; i++ {
		assert.True(t, b.Allow())
		b.Record(false)
	}
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	b, c := newTestBreaker(1, 2)

	b.Record(false)
	assert.False(t, b.Allow())

	c.now = c.now.Add(29 * time.Second)
	assert.False(t, b.Allow())

	c.now = c.now.Add(time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.Record(true)
	assert.Equal(t, StateHalfOpen, b.State())
	b.Record(true)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenAllowsOneProbeAtATime(t *testing.T) {
	b, c := newTestBreaker(1, 2)

	b.Record(false)
	c.now = c.now.Add(30 * time.Second)

	assert.True(t, b.Allow())
	assert.False(t, b.Allow(), "a probe is already in flight")
	assert.False(t, b.Allow())

	b.Record(true)
	assert.Equal(t, StateHalfOpen, b.State())
	assert.True(t, b.Allow(), "the next probe goes out once the first is recorded")
	b.Record(true)
	assert.Equal(t, StateClosed, b.State())

	assert.True(t, b.Allow())
	assert.True(t, b.Allow(), "a closed breaker does not serialize calls")
	assert.Equal(t, int64(2), b.Metrics().RejectedRequests)
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, c := newTestBreaker(1, 1)

	b.Record(false)
	c.now = c.now.Add(30 * time.Second)
	assert.True(t, b.Allow())

	b.Record(false)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow(), "cooldown restarts from the failed probe")
}

func TestBreaker_Disabled(t *testing.T) {
	b, _ := newTestBreaker(0, 1)

	for i := 0; i < 10; i++ {
		b.Record(false)
	}
	assert.True(t, b.Allow())
	assert.Equal(t, StateClosed, b.State())
	assert.Zero(t, b.Metrics().TotalRequests)
}

func TestBreaker_ResetAndMetrics(t *testing.T) {
	b, _ := newTestBreaker(2, 1)

	b.Allow()
	b.Record(false)
	b.Allow()
	b.Record(false)
	b.Allow()

	m := b.Metrics()
	assert.Equal(t, int64(3), m.TotalRequests)
	assert.Equal(t, int64(2), m.FailedRequests)
	assert.Equal(t, int64(1), m.RejectedRequests)
	assert.Equal(t, "OPEN", m.CurrentState)

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}
