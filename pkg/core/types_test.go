package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderSide(t *testing.T) {
	tests := []struct {
		in      string
		want    OrderSide
		wantErr bool
	}{
		{"buy", SideBuy, false},
		{"b", SideBuy, false},
		{"SELL", SideSell, false},
		{"s", SideSell, false},
		{"hold", SideBuy, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrderSide(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderSide_MarshalJSON(t *testing.T) {
	data, err := SideSell.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"sell"`, string(data))
}

func TestParseOrderType(t *testing.T) {
	tests := []struct {
		in   string
		want OrderType
	}{
		{"market", TypeMarket},
		{"m", TypeMarket},
		{"limit", TypeLimit},
		{"l", TypeLimit},
		{"stop-loss", TypeStopLoss},
		{"take-profit-limit", TypeTakeProfitLimit},
		{"settle-position", TypeSettlePosition},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrderType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOrderType("iceberg")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOrderType_String(t *testing.T) {
	assert.Equal(t, "stop-loss-limit", TypeStopLossLimit.String())
	assert.Equal(t, "trailing-stop", TypeTrailingStop.String())
}

func TestUnixFloat(t *testing.T) {
	got := UnixFloat(1610000000.25)

	assert.Equal(t, int64(1610000000), got.Unix())
	assert.Equal(t, 250*time.Millisecond, time.Duration(got.Nanosecond()))
	assert.Equal(t, time.UTC, got.Location())
}
