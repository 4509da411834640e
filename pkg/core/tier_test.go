package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTier_String(t *testing.T) {
	tests := []struct {
		name string
		tier Tier
		want string
	}{
		{"none", TierNone, "none"},
		{"starter", TierStarter, "starter"},
		{"intermediate", TierIntermediate, "intermediate"},
		{"pro", TierPro, "pro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tier.String())
		})
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{"", TierNone},
		{"None", TierNone},
		{"starter", TierStarter},
		{" Intermediate ", TierIntermediate},
		{"PRO", TierPro},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseTier("gold")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTier_Text(t *testing.T) {
	text, err := TierIntermediate.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "intermediate", string(text))

	var tier Tier
	require.NoError(t, tier.UnmarshalText([]byte("pro")))
	assert.Equal(t, TierPro, tier)
	assert.Error(t, tier.UnmarshalText([]byte("unknown")))
}
