package core

import (
	"fmt"
	"strings"
)

// Tier is the verification level of a Kraken account.
// It selects the ceiling and decay of the private rate budget.
type Tier int

// Tier constants.
const (
	// TierNone disables private rate accounting.
	TierNone Tier = iota
	// TierStarter allows 15 units with 0.33 units/s decay.
	TierStarter
	// TierIntermediate allows 20 units with 0.5 units/s decay.
	TierIntermediate
	// TierPro allows 20 units with 1 unit/s decay.
	TierPro
)

// String returns the string representation of the tier ("none", "starter", "intermediate" or "pro").
func (t Tier) String() string {
	return [...]string{
		"none",
		"starter",
		"intermediate",
		"pro",
	}[t]
}

// ParseTier parses a case-insensitive tier name.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TierNone, nil
	case "starter":
		return TierStarter, nil
	case "intermediate":
		return TierIntermediate, nil
	case "pro":
		return TierPro, nil
	}
	return TierNone, fmt.Errorf("%w: unknown tier %q", ErrInvalidArgument, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
