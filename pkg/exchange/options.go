package exchange

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"krakenex/pkg/core"
)

// Query id limits of the batch lookup endpoints.
const (
	MaxQueryOrders  = 50
	MaxQueryTrades  = 20
	MaxQueryLedgers = 20
)

var (
	// OHLCIntervals are the candle widths in minutes accepted by the OHLC endpoint.
	OHLCIntervals = []int{1, 5, 15, 30, 60, 240, 1440, 10080, 21600}

	TradeTypes = []string{"all", "any position", "closed position", "closing position", "no position"}

	LedgerTypes = []string{
		"all", "deposit", "withdrawal", "trade", "margin", "rollover",
		"credit", "transfer", "settled", "staking", "sale",
	}

	CloseTimes = []string{"open", "close", "both"}
)

type Option func(*Options)

// Options holds optional query parameters. Zero values are not sent.
type Options struct {
	Interval   int
	Since      string
	Count      int
	Assets     []string
	AssetClass string
	Trades     bool
	UserRef    int
	Start      string
	End        string
	Offset     int
	CloseTime  string
	TradeType  string
	LedgerType string
	Pairs      []string
	FeeInfo    bool
	DoCalcs    bool
}

func WithInterval(minutes int) Option {
	return func(o *Options) {
		o.Interval = minutes
	}
}

// WithSince sets the cursor returned as "last" by a previous call, or a unix timestamp.
func WithSince(since string) Option {
	return func(o *Options) {
		o.Since = since
	}
}

func WithCount(count int) Option {
	return func(o *Options) {
		o.Count = count
	}
}

func WithAssets(assets ...string) Option {
	return func(o *Options) {
		o.Assets = assets
	}
}

func WithAssetClass(class string) Option {
	return func(o *Options) {
		o.AssetClass = class
	}
}

func WithTrades(trades bool) Option {
	return func(o *Options) {
		o.Trades = trades
	}
}

func WithUserRef(ref int) Option {
	return func(o *Options) {
		o.UserRef = ref
	}
}

// WithStart bounds results to those after a unix timestamp or transaction id (exclusive).
func WithStart(start string) Option {
	return func(o *Options) {
		o.Start = start
	}
}

// WithEnd bounds results to those before a unix timestamp or transaction id (inclusive).
func WithEnd(end string) Option {
	return func(o *Options) {
		o.End = end
	}
}

func WithTimeRange(start, end time.Time) Option {
	return func(o *Options) {
		if !start.IsZero() {
			o.Start = strconv.FormatInt(start.Unix(), 10)
		}
		if !end.IsZero() {
			o.End = strconv.FormatInt(end.Unix(), 10)
		}
	}
}

func WithOffset(offset int) Option {
	return func(o *Options) {
		o.Offset = offset
	}
}

func WithCloseTime(closeTime string) Option {
	return func(o *Options) {
		o.CloseTime = closeTime
	}
}

func WithTradeType(tradeType string) Option {
	return func(o *Options) {
		o.TradeType = tradeType
	}
}

func WithLedgerType(ledgerType string) Option {
	return func(o *Options) {
		o.LedgerType = ledgerType
	}
}

func WithPairs(pairs ...string) Option {
	return func(o *Options) {
		o.Pairs = pairs
	}
}

func WithFeeInfo(feeInfo bool) Option {
	return func(o *Options) {
		o.FeeInfo = feeInfo
	}
}

// WithDoCalcs asks OpenPositions to include profit/loss calculations.
func WithDoCalcs(doCalcs bool) Option {
	return func(o *Options) {
		o.DoCalcs = doCalcs
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate rejects values the exchange would refuse with EGeneral:Invalid arguments.
func (o *Options) Validate() error {
	if o.Interval != 0 && !slices.Contains(OHLCIntervals, o.Interval) {
		return fmt.Errorf("%w: interval %d not in %v", core.ErrInvalidArgument, o.Interval, OHLCIntervals)
	}
	if o.CloseTime != "" && !slices.Contains(CloseTimes, o.CloseTime) {
		return fmt.Errorf("%w: closetime %q not in %v", core.ErrInvalidArgument, o.CloseTime, CloseTimes)
	}
	if o.TradeType != "" && !slices.Contains(TradeTypes, o.TradeType) {
		return fmt.Errorf("%w: trade type %q not in %v", core.ErrInvalidArgument, o.TradeType, TradeTypes)
	}
	if o.LedgerType != "" && !slices.Contains(LedgerTypes, o.LedgerType) {
		return fmt.Errorf("%w: ledger type %q not in %v", core.ErrInvalidArgument, o.LedgerType, LedgerTypes)
	}
	if o.Count < 0 {
		return fmt.Errorf("%w: count must not be negative", core.ErrInvalidArgument)
	}
	if o.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", core.ErrInvalidArgument)
	}
	return nil
}

// Params renders the set options under their Kraken parameter names.
func (o *Options) Params() core.Params {
	p := core.Params{}
	if o.Interval != 0 {
		p["interval"] = o.Interval
	}
	if o.Since != "" {
		p["since"] = o.Since
	}
	if o.Count != 0 {
		p["count"] = o.Count
	}
	if len(o.Assets) > 0 {
		p["asset"] = o.Assets
	}
	if o.AssetClass != "" {
		p["aclass"] = o.AssetClass
	}
	if o.Trades {
		p["trades"] = true
	}
	if o.UserRef != 0 {
		p["userref"] = o.UserRef
	}
	if o.Start != "" {
		p["start"] = o.Start
	}
	if o.End != "" {
		p["end"] = o.End
	}
	if o.Offset != 0 {
		p["ofs"] = o.Offset
	}
	if o.CloseTime != "" {
		p["closetime"] = o.CloseTime
	}
	if o.TradeType != "" {
		p["type"] = o.TradeType
	}
	if o.LedgerType != "" {
		p["type"] = o.LedgerType
	}
	if len(o.Pairs) > 0 {
		p["pair"] = o.Pairs
	}
	if o.FeeInfo {
		p["fee-info"] = true
	}
	if o.DoCalcs {
		p["docalcs"] = true
	}
	return p
}

// CheckIDs validates a batch of transaction or ledger ids against an endpoint limit.
func CheckIDs(ids []string, limit int) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one id is required", core.ErrInvalidArgument)
	}
	if len(ids) > limit {
		return fmt.Errorf("%w: %d ids exceed the limit of %d", core.ErrInvalidArgument, len(ids), limit)
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" || strings.Contains(id, ",") {
			return fmt.Errorf("%w: malformed id %q", core.ErrInvalidArgument, id)
		}
	}
	return nil
}
