package ratelimit

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenex/pkg/core"
)

func TestTierBudget(t *testing.T) {
	tests := []struct {
		tier core.Tier
		want BudgetConfig
	}{
		{core.TierStarter, BudgetConfig{Ceiling: 15, UnitCost: 1, DecayRate: 0.33}},
		{core.TierIntermediate, BudgetConfig{Ceiling: 20, UnitCost: 1, DecayRate: 0.5}},
		{core.TierPro, BudgetConfig{Ceiling: 20, UnitCost: 1, DecayRate: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, TierBudget(tt.tier))
		})
	}

	none := TierBudget(core.TierNone)
	assert.True(t, math.IsInf(none.Ceiling, 1))
	assert.True(t, none.Unlimited())
	assert.Zero(t, none.UnitCost)
	assert.Zero(t, none.DecayRate)
}

func TestGovernor_CostFor(t *testing.T) {
	governor := NewGovernor(core.TierStarter)

	tests := []struct {
		endpoint string
		cost     float64
		ok       bool
	}{
		{core.EndpointLedgers, 2, true},
		{core.EndpointTradesHistory, 2, true},
		{core.EndpointClosedOrders, 2, true},
		{core.EndpointAddOrder, 0, true},
		{core.EndpointCancelOrder, 0, true},
		{core.EndpointBalance, 1, true},
		{core.EndpointQueryLedgers, 1, true},
		{core.EndpointTicker, 0, false},
		{core.EndpointTime, 0, false},
		{"Nope", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			cost, ok := governor.CostFor(tt.endpoint)
			assert.Equal(t, tt.cost, cost)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestGovernor_IsRetryable(t *testing.T) {
	governor := NewGovernor(core.TierPro)

	for _, endpoint := range []string{
		core.EndpointAddOrder, core.EndpointCancelOrder, core.EndpointWithdraw,
		core.EndpointWithdrawCancel, core.EndpointWalletTransfer,
		core.EndpointAddExport, core.EndpointRemoveExport,
	} {
		assert.False(t, governor.IsRetryable(endpoint), endpoint)
	}
	for _, endpoint := range []string{core.EndpointBalance, core.EndpointLedgers, core.EndpointTicker} {
		assert.True(t, governor.IsRetryable(endpoint), endpoint)
	}
}

func TestGovernor_Classify(t *testing.T) {
	governor := NewGovernor(core.TierPro)

	class, err := governor.Classify(core.EndpointDepth)
	require.NoError(t, err)
	assert.Equal(t, core.ClassPublic, class)

	_, err = governor.Classify("GetDepth")
	assert.ErrorIs(t, err, core.ErrUnknownMethod)
}

func TestGovernor_StarterTierBlocksInsteadOfExceeding(t *testing.T) {
	clock := newFakeClock()
	governor := NewGovernor(core.TierStarter, WithClock(clock))
	private := governor.Budget(core.ClassPrivate)

	for i := 0; i < 15; i++ {
		admitted, err := governor.Gate(context.Background(), core.EndpointLedgers, true)
		require.NoError(t, err)
		require.True(t, admitted)
		assert.LessOrEqual(t, private.Counter(), 15.0+1e-9, "call %d", i+1)
	}

	expected := (15*2.0 - 15) / 0.33
	assert.InDelta(t, expected, clock.Slept().Seconds(), 1e-3)
	assert.NotEmpty(t, clock.Sleeps())

	metrics := governor.Metrics()
	assert.Equal(t, int64(15), metrics.GatedCalls)
	assert.Equal(t, int64(15), metrics.AdmittedCalls)
	assert.Equal(t, int64(8), metrics.WaitedCalls)
}

func TestGovernor_PublicBudgetOnePerSecond(t *testing.T) {
	clock := newFakeClock()
	governor := NewGovernor(core.TierNone, WithClock(clock))

	for i := 0; i < 4; i++ {
		_, err := governor.Gate(context.Background(), core.EndpointTicker, true)
		require.NoError(t, err)
	}

	assert.InDelta(t, 3.0, clock.Slept().Seconds(), 1e-6)
}

func TestGovernor_Gate_NonBlocking(t *testing.T) {
	governor := NewGovernor(core.TierStarter, WithClock(newFakeClock()))

	admitted, err := governor.Gate(context.Background(), core.EndpointTime, false)
	require.NoError(t, err)
	assert.True(t, admitted)

	admitted, err = governor.Gate(context.Background(), core.EndpointTime, false)
	require.NoError(t, err)
	assert.False(t, admitted)

	metrics := governor.Metrics()
	assert.Equal(t, int64(2), metrics.GatedCalls)
	assert.Equal(t, int64(1), metrics.AdmittedCalls)
	assert.Equal(t, int64(1), metrics.DeniedCalls)
}

func TestGovernor_Gate_UnknownEndpointTouchesNoBudget(t *testing.T) {
	governor := NewGovernor(core.TierStarter, WithClock(newFakeClock()))

	admitted, err := governor.Gate(context.Background(), "Withdrawal", true)

	assert.ErrorIs(t, err, core.ErrUnknownMethod)
	assert.False(t, admitted)
	assert.Zero(t, governor.Budget(core.ClassPublic).Counter())
	assert.Zero(t, governor.Budget(core.ClassPrivate).Counter())
	assert.Zero(t, governor.Metrics().GatedCalls)
}

func TestGovernor_Gate_ZeroCostOrders(t *testing.T) {
	governor := NewGovernor(core.TierStarter, WithClock(newFakeClock()))
	governor.Budget(core.ClassPrivate).MarkExceeded()

	admitted, err := governor.Gate(context.Background(), core.EndpointAddOrder, false)

	require.NoError(t, err)
	assert.False(t, admitted, "an exceeded budget admits nothing, not even zero cost")
}

func TestGovernor_TierNoneNeverWaits(t *testing.T) {
	clock := newFakeClock()
	governor := NewGovernor(core.TierNone, WithClock(clock))

	for i := 0; i < 100; i++ {
		_, err := governor.Gate(context.Background(), core.EndpointTradesHistory, true)
		require.NoError(t, err)
	}

	assert.Empty(t, clock.Sleeps())
}

func TestGovernor_OnRemoteRateLimit(t *testing.T) {
	governor := NewGovernor(core.TierIntermediate, WithClock(newFakeClock()))

	governor.OnRemoteRateLimit(core.EndpointTicker)
	assert.Equal(t, 4.0, governor.Budget(core.ClassPublic).Counter())
	assert.Zero(t, governor.Budget(core.ClassPrivate).Counter())

	governor.OnRemoteRateLimit(core.EndpointBalance)
	assert.Equal(t, 21.5, governor.Budget(core.ClassPrivate).Counter())

	governor.OnRemoteRateLimit("Unknown")
}

func TestGovernor_Limits(t *testing.T) {
	clock := newFakeClock()
	governor := NewGovernor(core.TierPro, WithClock(clock))
	_, err := governor.Gate(context.Background(), core.EndpointLedgers, true)
	require.NoError(t, err)

	clock.Advance(500 * time.Millisecond)
	limits := governor.Limits()

	assert.Equal(t, core.TierPro, limits.Tier)
	assert.Equal(t, 20.0, limits.Private.Ceiling)
	assert.InDelta(t, 1.5, limits.Private.Counter, 1e-9)
	assert.Equal(t, 1.0, limits.Public.Ceiling)
	assert.Zero(t, limits.Public.Counter)
}
