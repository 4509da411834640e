package wallet

import (
	"github.com/cockroachdb/apd/v3"
)

// Pair is a tradable pair; Quote prices Base.
type Pair struct {
	Symbol       string
	AltName      string
	Name         string
	PairDecimals int
	Base         *Currency
	Quote        *Currency
	OrderMin     apd.Decimal
}

func (p *Pair) IsFiatToCrypto() bool {
	return !p.Base.IsFiat() && p.Quote.IsFiat()
}

func (p *Pair) IsCryptoToCrypto() bool {
	return !p.Base.IsFiat() && !p.Quote.IsFiat()
}

func (p *Pair) IsFiatToFiat() bool {
	return p.Base.IsFiat() && p.Quote.IsFiat()
}

func (p *Pair) String() string {
	return p.Symbol
}
