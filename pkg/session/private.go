package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"krakenex/pkg/core"
	"krakenex/pkg/exchange"
	"krakenex/pkg/exchange/kraken"
)

// GetAccountBalance returns the balance of every asset held, keyed by asset symbol.
func (s *Session) GetAccountBalance(ctx context.Context) (map[string]apd.Decimal, error) {
	raw, err := s.Call(ctx, core.EndpointBalance, nil)
	if err != nil {
		return nil, err
	}
	return kraken.ParseBalance(raw)
}

// GetTradeBalance returns margin and equity figures. WithAssets picks the
// base asset the figures are expressed in (default ZUSD).
func (s *Session) GetTradeBalance(ctx context.Context, opts ...exchange.Option) (map[string]any, error) {
	params, err := optionParams(opts)
	if err != nil {
		return nil, err
	}
	return s.QueryPrivate(ctx, core.EndpointTradeBalance, params)
}

// GetOpenOrders returns open orders keyed by txid.
func (s *Session) GetOpenOrders(ctx context.Context, opts ...exchange.Option) (map[string]any, error) {
	params, err := optionParams(opts)
	if err != nil {
		return nil, err
	}
	result, err := s.QueryPrivate(ctx, core.EndpointOpenOrders, params)
	if err != nil {
		return nil, err
	}
	return objectField(result, "open"), nil
}

// GetClosedOrders returns one page of closed orders keyed by txid, and the
// total number of orders matching the query.
func (s *Session) GetClosedOrders(ctx context.Context, opts ...exchange.Option) (map[string]any, int, error) {
	params, err := optionParams(opts)
	if err != nil {
		return nil, 0, err
	}
	result, err := s.QueryPrivate(ctx, core.EndpointClosedOrders, params)
	if err != nil {
		return nil, 0, err
	}
	return objectField(result, "closed"), countField(result), nil
}

// QueryOrdersInfo looks up at most exchange.MaxQueryOrders orders.
func (s *Session) QueryOrdersInfo(ctx context.Context, txids []string, opts ...exchange.Option) (map[string]any, error) {
	params, err := idParams("txid", txids, exchange.MaxQueryOrders, opts)
	if err != nil {
		return nil, err
	}
	return s.QueryPrivate(ctx, core.EndpointQueryOrders, params)
}

// GetTradesHistory returns one page of trades, 50 at most, newest first, and
// the total number of trades matching the query.
func (s *Session) GetTradesHistory(ctx context.Context, opts ...exchange.Option) (map[string]core.TradeInfo, int, error) {
	params, err := optionParams(opts)
	if err != nil {
		return nil, 0, err
	}
	raw, err := s.Call(ctx, core.EndpointTradesHistory, params)
	if err != nil {
		return nil, 0, err
	}
	return kraken.ParseTradesHistory(raw)
}

// QueryTradesInfo looks up at most exchange.MaxQueryTrades trades.
func (s *Session) QueryTradesInfo(ctx context.Context, txids []string, opts ...exchange.Option) (map[string]core.TradeInfo, error) {
	params, err := idParams("txid", txids, exchange.MaxQueryTrades, opts)
	if err != nil {
		return nil, err
	}
	raw, err := s.Call(ctx, core.EndpointQueryTrades, params)
	if err != nil {
		return nil, err
	}
	return kraken.ParseTradesInfo(raw)
}

// GetOpenPositions returns open margin positions, all of them when txids is empty.
func (s *Session) GetOpenPositions(ctx context.Context, txids []string, opts ...exchange.Option) (map[string]any, error) {
	var (
		params core.Params
		err    error
	)
	if len(txids) == 0 {
		params, err = optionParams(opts)
	} else {
		params, err = idParams("txid", txids, exchange.MaxQueryOrders, opts)
	}
	if err != nil {
		return nil, err
	}
	return s.QueryPrivate(ctx, core.EndpointOpenPositions, params)
}

// GetLedgersInfo returns one page of ledger entries, 50 at most, and the
// total number of entries matching the query.
func (s *Session) GetLedgersInfo(ctx context.Context, opts ...exchange.Option) (map[string]core.LedgerInfo, int, error) {
	params, err := optionParams(opts)
	if err != nil {
		return nil, 0, err
	}
	raw, err := s.Call(ctx, core.EndpointLedgers, params)
	if err != nil {
		return nil, 0, err
	}
	return kraken.ParseLedgers(raw)
}

// QueryLedgers looks up at most exchange.MaxQueryLedgers ledger entries.
func (s *Session) QueryLedgers(ctx context.Context, ids []string, opts ...exchange.Option) (map[string]core.LedgerInfo, error) {
	params, err := idParams("id", ids, exchange.MaxQueryLedgers, opts)
	if err != nil {
		return nil, err
	}
	raw, err := s.Call(ctx, core.EndpointQueryLedgers, params)
	if err != nil {
		return nil, err
	}
	return kraken.ParseLedgerEntries(raw)
}

// GetTradeVolume returns the 30 day volume, with fee tiers for WithPairs when WithFeeInfo is set.
func (s *Session) GetTradeVolume(ctx context.Context, opts ...exchange.Option) (map[string]any, error) {
	params, err := optionParams(opts)
	if err != nil {
		return nil, err
	}
	return s.QueryPrivate(ctx, core.EndpointTradeVolume, params)
}

func idParams(name string, ids []string, limit int, opts []exchange.Option) (core.Params, error) {
	if err := exchange.CheckIDs(ids, limit); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	params, err := optionParams(opts)
	if err != nil {
		return nil, err
	}
	params[name] = strings.Join(ids, ",")
	return params, nil
}

func objectField(result map[string]any, key string) map[string]any {
	if v, ok := result[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

func countField(result map[string]any) int {
	if v, ok := result["count"].(float64); ok {
		return int(v)
	}
	return 0
}
