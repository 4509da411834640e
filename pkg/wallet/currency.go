package wallet

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Currency is an asset as listed by Kraken, e.g. XXBT (altname XBT) or ZEUR.
type Currency struct {
	Symbol          string
	AltName         string
	Decimals        int
	DisplayDecimals int
	Letter          string
	Description     string
}

// NewCurrency looks up the display glyph by altname. Staked variants such as
// XTZ.S share the glyph of XTZ.
func NewCurrency(symbol, altName string, decimals, displayDecimals int) *Currency {
	c := &Currency{
		Symbol:          symbol,
		AltName:         altName,
		Decimals:        decimals,
		DisplayDecimals: displayDecimals,
	}
	name, _, _ := strings.Cut(strings.ToUpper(altName), ".")
	if s, ok := currencySymbols[name]; ok {
		c.Letter = s.letter
		c.Description = s.name
	}
	return c
}

// IsFiat reports whether Kraken lists the currency as fiat (Z prefix).
func (c *Currency) IsFiat() bool {
	return strings.HasPrefix(strings.ToUpper(c.Symbol), "Z")
}

func (c *Currency) IsStakedOnChain() bool {
	return strings.HasSuffix(c.Symbol, ".S")
}

func (c *Currency) IsStakedOffChain() bool {
	return strings.HasSuffix(c.Symbol, ".M")
}

func (c *Currency) IsStaked() bool {
	return c.IsStakedOnChain() || c.IsStakedOffChain()
}

// FormatValue renders v with DisplayDecimals digits followed by the glyph.
func (c *Currency) FormatValue(v *apd.Decimal) string {
	if v.Form != apd.Finite {
		return v.String() + c.Letter
	}
	var d apd.Decimal
	if _, err := decimalCtx.Quantize(&d, v, -int32(c.DisplayDecimals)); err != nil {
		return v.Text('f') + c.Letter
	}
	return d.Text('f') + c.Letter
}

// RoundValue rounds v to Decimals digits.
func (c *Currency) RoundValue(v *apd.Decimal) (apd.Decimal, error) {
	var d apd.Decimal
	if v.Form != apd.Finite {
		d.Set(v)
		return d, nil
	}
	if _, err := decimalCtx.Quantize(&d, v, -int32(c.Decimals)); err != nil {
		return d, fmt.Errorf("round %s: %w", c.Symbol, err)
	}
	return d, nil
}

func (c *Currency) String() string {
	return c.Symbol
}
