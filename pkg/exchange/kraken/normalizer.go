package kraken

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"krakenex/pkg/core"
)

// Normalize decodes a result payload and converts every numeric string in it
// to float64. The "last" pagination cursor of a top level object is left as
// a string so it can be passed back verbatim.
func Normalize(raw json.RawMessage) (any, error) {
	var v any
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return FixFloatTypes(v), nil
	}

	last, hasLast := popLast(obj)
	FixFloatTypes(obj)
	if hasLast {
		obj["last"] = last
	}
	return obj, nil
}

// FixFloatTypes walks maps and slices and replaces strings that look numeric
// (digits and dots, optionally led by "-") with their float64 value.
// Containers are modified in place.
//
// Negative values are converted too, so debit amounts of the Ledgers endpoint
// come back as float64 rather than staying strings. Callers that matched the
// sign-less rule of earlier Kraken clients should expect numbers there.
func FixFloatTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, e := range val {
			val[k] = FixFloatTypes(e)
		}
		return val
	case []any:
		for i, e := range val {
			val[i] = FixFloatTypes(e)
		}
		return val
	case string:
		if !looksNumeric(val) {
			return val
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return val
		}
		return f
	default:
		return v
	}
}

// looksNumeric accepts digits and dots with one optional leading minus.
func looksNumeric(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if (s[i] < '0' || s[i] > '9') && s[i] != '.' {
			return false
		}
	}
	return true
}

// popLast removes the "last" cursor and returns it as a string.
func popLast(obj map[string]any) (string, bool) {
	v, ok := obj["last"]
	if !ok {
		return "", false
	}
	delete(obj, "last")

	switch last := v.(type) {
	case string:
		return last, true
	case float64:
		return strconv.FormatFloat(last, 'f', -1, 64), true
	default:
		return fmt.Sprint(last), true
	}
}

// pairRows decodes a {"<pair>": [rows...], "last": ...} result.
func pairRows(raw json.RawMessage) (string, []any, string, error) {
	var obj map[string]any
	if err := sonic.Unmarshal(raw, &obj); err != nil {
		return "", nil, "", fmt.Errorf("decode result: %w", err)
	}

	last, _ := popLast(obj)
	for pair, v := range obj {
		rows, ok := v.([]any)
		if !ok {
			return "", nil, "", fmt.Errorf("pair %s: expected array, got %T", pair, v)
		}
		FixFloatTypes(rows)
		return pair, rows, last, nil
	}
	return "", nil, last, nil
}

func row(v any, minLen int) ([]any, error) {
	r, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected row array, got %T", v)
	}
	if len(r) < minLen {
		return nil, fmt.Errorf("expected at least %d columns, got %d", minLen, len(r))
	}
	return r, nil
}

func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("parse float %q: %w", val, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported type for float: %T", v)
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// ParseOHLC converts an OHLC result into candles and the "last" cursor.
func ParseOHLC(raw json.RawMessage) ([]core.OHLCEntry, string, error) {
	_, rows, last, err := pairRows(raw)
	if err != nil {
		return nil, "", err
	}

	entries := make([]core.OHLCEntry, 0, len(rows))
	for i, v := range rows {
		r, err := row(v, 8)
		if err != nil {
			return nil, "", fmt.Errorf("ohlc row %d: %w", i, err)
		}

		var cols [8]float64
		for j := range cols {
			if cols[j], err = toFloat(r[j]); err != nil {
				return nil, "", fmt.Errorf("ohlc row %d column %d: %w", i, j, err)
			}
		}

		entries = append(entries, core.OHLCEntry{
			Time:   core.UnixFloat(cols[0]),
			Open:   cols[1],
			High:   cols[2],
			Low:    cols[3],
			Close:  cols[4],
			VWAP:   cols[5],
			Volume: cols[6],
			Count:  int64(cols[7]),
		})
	}
	return entries, last, nil
}

// ParseOrderBook converts a Depth result for a single pair.
func ParseOrderBook(raw json.RawMessage) (*core.OrderBook, error) {
	var result map[string]struct {
		Asks []any `json:"asks"`
		Bids []any `json:"bids"`
	}
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode depth: %w", err)
	}

	for pair, side := range result {
		asks, err := parseBookSide(side.Asks)
		if err != nil {
			return nil, fmt.Errorf("asks: %w", err)
		}
		bids, err := parseBookSide(side.Bids)
		if err != nil {
			return nil, fmt.Errorf("bids: %w", err)
		}

		sort.SliceStable(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })
		sort.SliceStable(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
		return &core.OrderBook{Pair: pair, Asks: asks, Bids: bids}, nil
	}
	return nil, fmt.Errorf("depth result has no pair")
}

func parseBookSide(levels []any) ([]core.OrderBookEntry, error) {
	FixFloatTypes(levels)
	entries := make([]core.OrderBookEntry, 0, len(levels))
	for i, v := range levels {
		r, err := row(v, 3)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
		price, err := toFloat(r[0])
		if err != nil {
			return nil, fmt.Errorf("level %d price: %w", i, err)
		}
		volume, err := toFloat(r[1])
		if err != nil {
			return nil, fmt.Errorf("level %d volume: %w", i, err)
		}
		ts, err := toFloat(r[2])
		if err != nil {
			return nil, fmt.Errorf("level %d timestamp: %w", i, err)
		}
		entries = append(entries, core.OrderBookEntry{
			Price:     price,
			Volume:    volume,
			Timestamp: core.UnixFloat(ts),
		})
	}
	return entries, nil
}

// ParseRecentTrades converts a Trades result into trades and the "last" cursor.
func ParseRecentTrades(raw json.RawMessage) ([]core.RecentTrade, string, error) {
	_, rows, last, err := pairRows(raw)
	if err != nil {
		return nil, "", err
	}

	trades := make([]core.RecentTrade, 0, len(rows))
	for i, v := range rows {
		r, err := row(v, 6)
		if err != nil {
			return nil, "", fmt.Errorf("trade row %d: %w", i, err)
		}

		price, err := toFloat(r[0])
		if err != nil {
			return nil, "", fmt.Errorf("trade row %d price: %w", i, err)
		}
		volume, err := toFloat(r[1])
		if err != nil {
			return nil, "", fmt.Errorf("trade row %d volume: %w", i, err)
		}
		ts, err := toFloat(r[2])
		if err != nil {
			return nil, "", fmt.Errorf("trade row %d time: %w", i, err)
		}
		side, err := core.ParseOrderSide(toString(r[3]))
		if err != nil {
			return nil, "", fmt.Errorf("trade row %d: %w", i, err)
		}
		orderType, err := core.ParseOrderType(toString(r[4]))
		if err != nil {
			return nil, "", fmt.Errorf("trade row %d: %w", i, err)
		}

		trade := core.RecentTrade{
			Price:     price,
			Volume:    volume,
			Time:      core.UnixFloat(ts),
			Side:      side,
			OrderType: orderType,
			Misc:      toString(r[5]),
		}
		if len(r) > 6 {
			if id, err := toFloat(r[6]); err == nil {
				trade.TradeID = int64(id)
			}
		}
		trades = append(trades, trade)
	}
	return trades, last, nil
}

// ParseSpread converts a Spread result into snapshots and the "last" cursor.
func ParseSpread(raw json.RawMessage) ([]core.SpreadEntry, string, error) {
	_, rows, last, err := pairRows(raw)
	if err != nil {
		return nil, "", err
	}

	entries := make([]core.SpreadEntry, 0, len(rows))
	for i, v := range rows {
		r, err := row(v, 3)
		if err != nil {
			return nil, "", fmt.Errorf("spread row %d: %w", i, err)
		}
		var cols [3]float64
		for j := range cols {
			if cols[j], err = toFloat(r[j]); err != nil {
				return nil, "", fmt.Errorf("spread row %d column %d: %w", i, j, err)
			}
		}
		entries = append(entries, core.SpreadEntry{
			Time: core.UnixFloat(cols[0]),
			Bid:  cols[1],
			Ask:  cols[2],
		})
	}
	return entries, last, nil
}

type ServerTimeResult struct {
	UnixTime int64  `json:"unixtime"`
	RFC1123  string `json:"rfc1123"`
}

func ParseServerTime(raw json.RawMessage) (*core.ServerTime, error) {
	var result ServerTimeResult
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode server time: %w", err)
	}
	return &core.ServerTime{
		Time:    time.Unix(result.UnixTime, 0).UTC(),
		RFC1123: result.RFC1123,
	}, nil
}

type SystemStatusResult struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func ParseSystemStatus(raw json.RawMessage) (*core.SystemStatus, error) {
	var result SystemStatusResult
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode system status: %w", err)
	}

	status := &core.SystemStatus{Status: result.Status}
	if result.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, result.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse status timestamp: %w", err)
		}
		status.Timestamp = ts.UTC()
	}
	return status, nil
}

type AssetResult struct {
	AssetClass      string `json:"aclass"`
	AltName         string `json:"altname"`
	Decimals        int    `json:"decimals"`
	DisplayDecimals int    `json:"display_decimals"`
}

func ParseAssets(raw json.RawMessage) (map[string]core.AssetInfo, error) {
	var result map[string]AssetResult
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode assets: %w", err)
	}

	assets := make(map[string]core.AssetInfo, len(result))
	for symbol, a := range result {
		assets[symbol] = core.AssetInfo{
			Symbol:          symbol,
			AssetClass:      a.AssetClass,
			AltName:         a.AltName,
			Decimals:        a.Decimals,
			DisplayDecimals: a.DisplayDecimals,
		}
	}
	return assets, nil
}

type AssetPairResult struct {
	AltName      string `json:"altname"`
	WSName       string `json:"wsname"`
	Base         string `json:"base"`
	Quote        string `json:"quote"`
	PairDecimals int    `json:"pair_decimals"`
	LotDecimals  int    `json:"lot_decimals"`
	OrderMin     string `json:"ordermin"`
}

func ParseAssetPairs(raw json.RawMessage) (map[string]core.AssetPairInfo, error) {
	var result map[string]AssetPairResult
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode asset pairs: %w", err)
	}

	pairs := make(map[string]core.AssetPairInfo, len(result))
	for symbol, p := range result {
		info := core.AssetPairInfo{
			Symbol:       symbol,
			AltName:      p.AltName,
			WSName:       p.WSName,
			Base:         p.Base,
			Quote:        p.Quote,
			PairDecimals: p.PairDecimals,
			LotDecimals:  p.LotDecimals,
		}
		if err := parseDecimal(&info.OrderMin, p.OrderMin); err != nil {
			return nil, fmt.Errorf("pair %s ordermin: %w", symbol, err)
		}
		pairs[symbol] = info
	}
	return pairs, nil
}

// ParseBalance converts a Balance result, keyed by asset symbol.
func ParseBalance(raw json.RawMessage) (map[string]apd.Decimal, error) {
	var result map[string]string
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}

	balances := make(map[string]apd.Decimal, len(result))
	for asset, s := range result {
		var d apd.Decimal
		if err := parseDecimal(&d, s); err != nil {
			return nil, fmt.Errorf("balance %s: %w", asset, err)
		}
		balances[asset] = d
	}
	return balances, nil
}

type TradeResult struct {
	OrderTxID string  `json:"ordertxid"`
	PosTxID   string  `json:"postxid"`
	Pair      string  `json:"pair"`
	Time      float64 `json:"time"`
	Type      string  `json:"type"`
	OrderType string  `json:"ordertype"`
	Price     string  `json:"price"`
	Cost      string  `json:"cost"`
	Fee       string  `json:"fee"`
	Vol       string  `json:"vol"`
	Margin    string  `json:"margin"`
	Misc      string  `json:"misc"`
}

type tradesHistoryResult struct {
	Trades map[string]TradeResult `json:"trades"`
	Count  int                    `json:"count"`
}

// ParseTradesHistory converts a TradesHistory result and the total count.
func ParseTradesHistory(raw json.RawMessage) (map[string]core.TradeInfo, int, error) {
	var result tradesHistoryResult
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, 0, fmt.Errorf("decode trades history: %w", err)
	}
	trades, err := normalizeTrades(result.Trades)
	if err != nil {
		return nil, 0, err
	}
	return trades, result.Count, nil
}

// ParseTradesInfo converts a QueryTrades result keyed by txid.
func ParseTradesInfo(raw json.RawMessage) (map[string]core.TradeInfo, error) {
	var result map[string]TradeResult
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}
	return normalizeTrades(result)
}

func normalizeTrades(raw map[string]TradeResult) (map[string]core.TradeInfo, error) {
	trades := make(map[string]core.TradeInfo, len(raw))
	for txid, t := range raw {
		info, err := normalizeTrade(txid, t)
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", txid, err)
		}
		trades[txid] = info
	}
	return trades, nil
}

func normalizeTrade(txid string, t TradeResult) (core.TradeInfo, error) {
	info := core.TradeInfo{
		TxID:      txid,
		OrderTxID: t.OrderTxID,
		PosTxID:   t.PosTxID,
		Pair:      t.Pair,
		Time:      core.UnixFloat(t.Time),
		Misc:      t.Misc,
	}

	var err error
	if info.Side, err = core.ParseOrderSide(t.Type); err != nil {
		return info, err
	}
	if info.OrderType, err = core.ParseOrderType(t.OrderType); err != nil {
		return info, err
	}

	fields := []struct {
		name string
		dest *apd.Decimal
		val  string
	}{
		{"price", &info.Price, t.Price},
		{"cost", &info.Cost, t.Cost},
		{"fee", &info.Fee, t.Fee},
		{"vol", &info.Volume, t.Vol},
		{"margin", &info.Margin, t.Margin},
	}
	for _, f := range fields {
		if err := parseDecimal(f.dest, f.val); err != nil {
			return info, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return info, nil
}

type LedgerResult struct {
	RefID   string  `json:"refid"`
	Time    float64 `json:"time"`
	Type    string  `json:"type"`
	Subtype string  `json:"subtype"`
	AClass  string  `json:"aclass"`
	Asset   string  `json:"asset"`
	Amount  string  `json:"amount"`
	Fee     string  `json:"fee"`
	Balance string  `json:"balance"`
}

type ledgersResult struct {
	Ledger map[string]LedgerResult `json:"ledger"`
	Count  int                     `json:"count"`
}

// ParseLedgers converts a Ledgers result and the total count.
func ParseLedgers(raw json.RawMessage) (map[string]core.LedgerInfo, int, error) {
	var result ledgersResult
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, 0, fmt.Errorf("decode ledgers: %w", err)
	}
	ledgers, err := normalizeLedgers(result.Ledger)
	if err != nil {
		return nil, 0, err
	}
	return ledgers, result.Count, nil
}

// ParseLedgerEntries converts a QueryLedgers result keyed by ledger id.
func ParseLedgerEntries(raw json.RawMessage) (map[string]core.LedgerInfo, error) {
	var result map[string]LedgerResult
	if err := sonic.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode ledgers: %w", err)
	}
	return normalizeLedgers(result)
}

func normalizeLedgers(raw map[string]LedgerResult) (map[string]core.LedgerInfo, error) {
	ledgers := make(map[string]core.LedgerInfo, len(raw))
	for id, l := range raw {
		info := core.LedgerInfo{
			LedgerID:   id,
			RefID:      l.RefID,
			Time:       core.UnixFloat(l.Time),
			Type:       l.Type,
			Subtype:    l.Subtype,
			AssetClass: l.AClass,
			Asset:      l.Asset,
		}
		if err := parseDecimal(&info.Amount, l.Amount); err != nil {
			return nil, fmt.Errorf("ledger %s amount: %w", id, err)
		}
		if err := parseDecimal(&info.Fee, l.Fee); err != nil {
			return nil, fmt.Errorf("ledger %s fee: %w", id, err)
		}
		if err := parseDecimal(&info.Balance, l.Balance); err != nil {
			return nil, fmt.Errorf("ledger %s balance: %w", id, err)
		}
		ledgers[id] = info
	}
	return ledgers, nil
}

func parseDecimal(dest *apd.Decimal, s string) error {
	if s == "" {
		*dest = apd.Decimal{}
		return nil
	}

	_, _, err := apd.BaseContext.SetString(dest, s)
	if err != nil {
		return fmt.Errorf("set decimal from string: %w", err)
	}

	return nil
}
