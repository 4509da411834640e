package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of a trade (buy or sell).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates a purchase of the base currency.
	SideBuy OrderSide = iota
	// SideSell indicates a sale of the base currency.
	SideSell
)

// String returns the string representation of the order side ("buy" or "sell").
func (s OrderSide) String() string {
	return [...]string{"buy", "sell"}[s]
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ParseOrderSide accepts the long ("buy") and short ("b") forms used across endpoints.
func ParseOrderSide(s string) (OrderSide, error) {
	switch strings.ToLower(s) {
	case "buy", "b":
		return SideBuy, nil
	case "sell", "s":
		return SideSell, nil
	}
	return SideBuy, fmt.Errorf("%w: unknown order side %q", ErrInvalidArgument, s)
}

// OrderType represents how an order is executed.
type OrderType int

const (
	TypeMarket OrderType = iota
	TypeLimit
	TypeStopLoss
	TypeTakeProfit
	TypeStopLossLimit
	TypeTakeProfitLimit
	TypeTrailingStop
	TypeTrailingStopLimit
	TypeSettlePosition
)

var orderTypeNames = [...]string{
	"market",
	"limit",
	"stop-loss",
	"take-profit",
	"stop-loss-limit",
	"take-profit-limit",
	"trailing-stop",
	"trailing-stop-limit",
	"settle-position",
}

// String returns the Kraken name of the order type.
func (t OrderType) String() string {
	return orderTypeNames[t]
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// ParseOrderType accepts Kraken order type names and the "m"/"l" short
// forms of the public trades feed.
func ParseOrderType(s string) (OrderType, error) {
	switch strings.ToLower(s) {
	case "m":
		return TypeMarket, nil
	case "l":
		return TypeLimit, nil
	}
	for i, name := range orderTypeNames {
		if strings.EqualFold(s, name) {
			return OrderType(i), nil
		}
	}
	return TypeMarket, fmt.Errorf("%w: unknown order type %q", ErrInvalidArgument, s)
}

// ServerTime is the exchange clock.
type ServerTime struct {
	Time    time.Time `json:"time"`
	RFC1123 string    `json:"rfc1123"`
}

// SystemStatus reports the trading state of the exchange.
type SystemStatus struct {
	// Status is one of "online", "maintenance", "cancel_only" or "post_only".
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// AssetInfo describes a currency as listed by the Assets endpoint.
type AssetInfo struct {
	Symbol          string `json:"symbol"`
	AssetClass      string `json:"aclass"`
	AltName         string `json:"altname"`
	Decimals        int    `json:"decimals"`
	DisplayDecimals int    `json:"display_decimals"`
}

// AssetPairInfo describes a tradable pair as listed by the AssetPairs endpoint.
type AssetPairInfo struct {
	Symbol       string      `json:"symbol"`
	AltName      string      `json:"altname"`
	WSName       string      `json:"wsname"`
	Base         string      `json:"base"`
	Quote        string      `json:"quote"`
	PairDecimals int         `json:"pair_decimals"`
	LotDecimals  int         `json:"lot_decimals"`
	OrderMin     apd.Decimal `json:"ordermin"`
}

// OHLCEntry is one candle of the OHLC endpoint.
type OHLCEntry struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	VWAP   float64   `json:"vwap"`
	Volume float64   `json:"volume"`
	Count  int64     `json:"count"`
}

// OrderBookEntry is one price level of the Depth endpoint.
type OrderBookEntry struct {
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderBook holds both sides of the book for a pair.
// Asks are sorted by price ascending, bids by price descending.
type OrderBook struct {
	Pair string           `json:"pair"`
	Asks []OrderBookEntry `json:"asks"`
	Bids []OrderBookEntry `json:"bids"`
}

// RecentTrade is one public trade of the Trades endpoint.
type RecentTrade struct {
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Time      time.Time `json:"time"`
	Side      OrderSide `json:"side"`
	OrderType OrderType `json:"order_type"`
	Misc      string    `json:"misc"`
	TradeID   int64     `json:"trade_id,omitempty"`
}

// SpreadEntry is one best bid/ask snapshot of the Spread endpoint.
type SpreadEntry struct {
	Time time.Time `json:"time"`
	Bid  float64   `json:"bid"`
	Ask  float64   `json:"ask"`
}

// TradeInfo is one of the account's own trades.
type TradeInfo struct {
	TxID      string      `json:"txid"`
	OrderTxID string      `json:"ordertxid"`
	PosTxID   string      `json:"postxid,omitempty"`
	Pair      string      `json:"pair"`
	Time      time.Time   `json:"time"`
	Side      OrderSide   `json:"type"`
	OrderType OrderType   `json:"ordertype"`
	Price     apd.Decimal `json:"price"`
	Cost      apd.Decimal `json:"cost"`
	Fee       apd.Decimal `json:"fee"`
	Volume    apd.Decimal `json:"vol"`
	Margin    apd.Decimal `json:"margin"`
	Misc      string      `json:"misc,omitempty"`
}

// LedgerInfo is one entry of the account ledger.
type LedgerInfo struct {
	LedgerID   string      `json:"ledger_id"`
	RefID      string      `json:"refid"`
	Time       time.Time   `json:"time"`
	Type       string      `json:"type"`
	Subtype    string      `json:"subtype,omitempty"`
	AssetClass string      `json:"aclass"`
	Asset      string      `json:"asset"`
	Amount     apd.Decimal `json:"amount"`
	Fee        apd.Decimal `json:"fee"`
	Balance    apd.Decimal `json:"balance"`
}

// UnixFloat converts fractional unix seconds, as used in Kraken timestamps.
func UnixFloat(seconds float64) time.Time {
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}
