package wallet

import (
	"time"

	"github.com/cockroachdb/apd/v3"

	"krakenex/pkg/core"
)

// TradingTransaction is a spot buy or sell. Price, cost and fees are in the
// quote currency of Pair, Amount is in the base currency.
type TradingTransaction struct {
	Pair      *Pair
	Side      core.OrderSide
	Price     apd.Decimal
	Amount    apd.Decimal
	Cost      apd.Decimal
	Fees      apd.Decimal
	Time      time.Time
	TxID      string
	OrderTxID string
}

func (t *TradingTransaction) Base() *Currency {
	return t.Pair.Base
}

func (t *TradingTransaction) Quote() *Currency {
	return t.Pair.Quote
}

type FundingKind int

const (
	Deposit FundingKind = iota
	Withdrawal
)

func (k FundingKind) String() string {
	if k == Withdrawal {
		return "withdrawal"
	}
	return "deposit"
}

// FundingTransaction is a deposit to or withdrawal from the exchange.
// Amount is always positive; Kind carries the direction.
type FundingTransaction struct {
	Kind     FundingKind
	Currency *Currency
	Amount   apd.Decimal
	Fees     apd.Decimal
	Time     time.Time
	LedgerID string
}
