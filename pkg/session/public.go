package session

import (
	"context"
	"fmt"

	"krakenex/pkg/core"
	"krakenex/pkg/exchange"
	"krakenex/pkg/exchange/kraken"
)

func (s *Session) GetServerTime(ctx context.Context) (*core.ServerTime, error) {
	raw, err := s.Call(ctx, core.EndpointTime, nil)
	if err != nil {
		return nil, err
	}
	return kraken.ParseServerTime(raw)
}

func (s *Session) GetSystemStatus(ctx context.Context) (*core.SystemStatus, error) {
	raw, err := s.Call(ctx, core.EndpointSystemStatus, nil)
	if err != nil {
		return nil, err
	}
	return kraken.ParseSystemStatus(raw)
}

// GetAssetInfo returns all assets, or only the given ones.
func (s *Session) GetAssetInfo(ctx context.Context, assets ...string) (map[string]core.AssetInfo, error) {
	params := core.Params{}
	if len(assets) > 0 {
		params["asset"] = assets
	}

	raw, err := s.Call(ctx, core.EndpointAssets, params)
	if err != nil {
		return nil, err
	}
	return kraken.ParseAssets(raw)
}

// GetTradableAssetPairs returns all pairs, or only the given ones.
func (s *Session) GetTradableAssetPairs(ctx context.Context, pairs ...string) (map[string]core.AssetPairInfo, error) {
	params := core.Params{}
	if len(pairs) > 0 {
		params["pair"] = pairs
	}

	raw, err := s.Call(ctx, core.EndpointAssetPairs, params)
	if err != nil {
		return nil, err
	}
	return kraken.ParseAssetPairs(raw)
}

// GetTickerInformation returns the normalized ticker of each pair.
func (s *Session) GetTickerInformation(ctx context.Context, pairs ...string) (map[string]any, error) {
	params := core.Params{}
	if len(pairs) > 0 {
		params["pair"] = pairs
	}
	return s.QueryPublic(ctx, core.EndpointTicker, params)
}

// GetOHLCData returns candles for pair and the cursor of the last one.
// The interval defaults to one minute.
func (s *Session) GetOHLCData(ctx context.Context, pair string, opts ...exchange.Option) ([]core.OHLCEntry, string, error) {
	params, err := pairParams(pair, opts)
	if err != nil {
		return nil, "", err
	}

	raw, err := s.Call(ctx, core.EndpointOHLC, params)
	if err != nil {
		return nil, "", err
	}
	return kraken.ParseOHLC(raw)
}

// GetOrderBook returns asks sorted ascending and bids sorted descending.
func (s *Session) GetOrderBook(ctx context.Context, pair string, opts ...exchange.Option) (*core.OrderBook, error) {
	params, err := pairParams(pair, opts)
	if err != nil {
		return nil, err
	}

	raw, err := s.Call(ctx, core.EndpointDepth, params)
	if err != nil {
		return nil, err
	}
	return kraken.ParseOrderBook(raw)
}

func (s *Session) GetRecentTrades(ctx context.Context, pair string, opts ...exchange.Option) ([]core.RecentTrade, string, error) {
	params, err := pairParams(pair, opts)
	if err != nil {
		return nil, "", err
	}

	raw, err := s.Call(ctx, core.EndpointTrades, params)
	if err != nil {
		return nil, "", err
	}
	return kraken.ParseRecentTrades(raw)
}

func (s *Session) GetRecentSpreadData(ctx context.Context, pair string, opts ...exchange.Option) ([]core.SpreadEntry, string, error) {
	params, err := pairParams(pair, opts)
	if err != nil {
		return nil, "", err
	}

	raw, err := s.Call(ctx, core.EndpointSpread, params)
	if err != nil {
		return nil, "", err
	}
	return kraken.ParseSpread(raw)
}

func pairParams(pair string, opts []exchange.Option) (core.Params, error) {
	if pair == "" {
		return nil, fmt.Errorf("%w: pair is required", core.ErrInvalidArgument)
	}
	params, err := optionParams(opts)
	if err != nil {
		return nil, err
	}
	params["pair"] = pair
	return params, nil
}

func optionParams(opts []exchange.Option) (core.Params, error) {
	o := exchange.ApplyOptions(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o.Params(), nil
}
