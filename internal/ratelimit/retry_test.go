package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenex/pkg/core"
)

func rateLimitErr(endpoint string) error {
	return core.NewAPIError(endpoint, core.ErrorTypeRateLimit, 200, string(core.ErrCodeRateLimit))
}

// scriptedSend returns the scripted errors in order, then nil.
func scriptedSend(calls *int, errs ...error) SendFunc {
	return func(ctx context.Context) error {
		*calls++
		if *calls <= len(errs) {
			return errs[*calls-1]
		}
		return nil
	}
}

func TestGovernor_Call_Success(t *testing.T) {
	governor := NewGovernor(core.TierStarter, WithClock(newFakeClock()))
	calls := 0

	err := governor.Call(context.Background(), core.EndpointBalance, true, scriptedSend(&calls))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1.0, governor.Budget(core.ClassPrivate).Counter())
}

func TestGovernor_Call_NonRetryablePropagatesImmediately(t *testing.T) {
	clock := newFakeClock()
	governor := NewGovernor(core.TierStarter, WithClock(clock))
	calls := 0
	remote := rateLimitErr(core.EndpointWithdraw)

	err := governor.Call(context.Background(), core.EndpointWithdraw, true,
		scriptedSend(&calls, remote, remote, remote))

	assert.Same(t, remote, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.Sleeps())
	assert.InDelta(t, 15.99, governor.Budget(core.ClassPrivate).Counter(), 1e-9)
	assert.Equal(t, int64(1), governor.Metrics().RemoteRateLimits)
	assert.Zero(t, governor.Metrics().Retries)
}

func TestGovernor_Call_RetriesPrivateThenSucceeds(t *testing.T) {
	clock := newFakeClock()
	governor := NewGovernor(core.TierStarter, WithClock(clock))
	calls := 0

	err := governor.Call(context.Background(), core.EndpointBalance, true,
		scriptedSend(&calls, rateLimitErr(core.EndpointBalance), rateLimitErr(core.EndpointBalance)))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.Sleeps())

	metrics := governor.Metrics()
	assert.Equal(t, int64(2), metrics.RemoteRateLimits)
	assert.Equal(t, int64(2), metrics.Retries)
	assert.Equal(t, int64(1), metrics.GatedCalls, "raw retries bypass the gate")
}

func TestGovernor_Call_RetriesPublicWithoutOffset(t *testing.T) {
	clock := newFakeClock()
	governor := NewGovernor(core.TierNone, WithClock(clock), WithRetryPolicy(4, 100*time.Millisecond))
	calls := 0

	err := governor.Call(context.Background(), core.EndpointTicker, true,
		scriptedSend(&calls,
			rateLimitErr(core.EndpointTicker),
			rateLimitErr(core.EndpointTicker),
			rateLimitErr(core.EndpointTicker)))

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, clock.Sleeps())
}

func TestGovernor_Call_ExhaustsAttempts(t *testing.T) {
	clock := newFakeClock()
	governor := NewGovernor(core.TierPro, WithClock(clock))
	calls := 0
	last := rateLimitErr(core.EndpointLedgers)

	err := governor.Call(context.Background(), core.EndpointLedgers, true,
		scriptedSend(&calls, rateLimitErr(core.EndpointLedgers), rateLimitErr(core.EndpointLedgers), last))

	assert.Same(t, last, err)
	assert.True(t, core.IsRateLimitError(err))
	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(1), governor.Metrics().RetriesExhausted)
	assert.Equal(t, 23.0, governor.Budget(core.ClassPrivate).Counter())
}

func TestGovernor_Call_SingleAttempt(t *testing.T) {
	governor := NewGovernor(core.TierPro, WithClock(newFakeClock()), WithRetryPolicy(1, time.Second))
	calls := 0

	err := governor.Call(context.Background(), core.EndpointBalance, true,
		scriptedSend(&calls, rateLimitErr(core.EndpointBalance)))

	assert.True(t, core.IsRateLimitError(err))
	assert.Equal(t, 1, calls)
}

func TestGovernor_Call_OtherErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"argument_usage", core.NewAPIError("Balance", core.ErrorTypeArgumentUsage, 200, "EGeneral:Invalid arguments")},
		{"permission_denied", core.NewAPIError("Balance", core.ErrorTypePermissionDenied, 200, "EGeneral:Permission denied")},
		{"invalid_nonce", core.NewAPIError("Balance", core.ErrorTypeInvalidNonce, 200, "EAPI:Invalid nonce")},
		{"network", core.NewTransportError("Balance", core.ErrorTypeNetwork, 0, errors.New("connection reset"))},
		{"plain", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			governor := NewGovernor(core.TierStarter, WithClock(clock))
			calls := 0

			err := governor.Call(context.Background(), core.EndpointBalance, true, scriptedSend(&calls, tt.err))

			assert.Same(t, tt.err, err)
			assert.Equal(t, 1, calls)
			assert.Empty(t, clock.Sleeps())
			assert.Equal(t, 1.0, governor.Budget(core.ClassPrivate).Counter())
		})
	}
}

func TestGovernor_Call_UnknownEndpoint(t *testing.T) {
	governor := NewGovernor(core.TierStarter, WithClock(newFakeClock()))
	calls := 0

	err := governor.Call(context.Background(), "Withdrawl", true, scriptedSend(&calls))

	assert.ErrorIs(t, err, core.ErrUnknownMethod)
	assert.Zero(t, calls)
	assert.Zero(t, governor.Budget(core.ClassPublic).Counter())
	assert.Zero(t, governor.Budget(core.ClassPrivate).Counter())
}

func TestGovernor_Call_NonBlockingDenied(t *testing.T) {
	governor := NewGovernor(core.TierStarter, WithClock(newFakeClock()))
	calls := 0

	require.NoError(t, governor.Call(context.Background(), core.EndpointTime, false, scriptedSend(&calls)))
	err := governor.Call(context.Background(), core.EndpointTime, false, scriptedSend(&calls))

	assert.ErrorIs(t, err, core.ErrBudgetExhausted)
	assert.Equal(t, 1, calls)
}

func TestGovernor_Call_CancelledDuringBackoff(t *testing.T) {
	governor := NewGovernor(core.TierStarter, WithClock(newFakeClock()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0

	err := governor.Call(ctx, core.EndpointBalance, true, func(ctx context.Context) error {
		calls++
		cancel()
		return rateLimitErr(core.EndpointBalance)
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestGovernor_Call_CancelledWhileGated(t *testing.T) {
	governor := NewGovernor(core.TierStarter, WithClock(newFakeClock()))
	governor.OnRemoteRateLimit(core.EndpointBalance)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	err := governor.Call(ctx, core.EndpointBalance, true, scriptedSend(&calls))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
