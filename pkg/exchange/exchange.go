package exchange

import (
	"context"

	"github.com/cockroachdb/apd/v3"

	"krakenex/pkg/core"
)

// PublicAPI is the market data surface of the Kraken REST API.
// Every call is admitted by the public rate budget before it is sent.
type PublicAPI interface {
	GetServerTime(ctx context.Context) (*core.ServerTime, error)
	GetSystemStatus(ctx context.Context) (*core.SystemStatus, error)
	GetAssetInfo(ctx context.Context, assets ...string) (map[string]core.AssetInfo, error)
	GetTradableAssetPairs(ctx context.Context, pairs ...string) (map[string]core.AssetPairInfo, error)
	GetTickerInformation(ctx context.Context, pairs ...string) (map[string]any, error)

	// The returned string is the "last" cursor to pass back as WithSince.
	GetOHLCData(ctx context.Context, pair string, opts ...Option) ([]core.OHLCEntry, string, error)
	GetOrderBook(ctx context.Context, pair string, opts ...Option) (*core.OrderBook, error)
	GetRecentTrades(ctx context.Context, pair string, opts ...Option) ([]core.RecentTrade, string, error)
	GetRecentSpreadData(ctx context.Context, pair string, opts ...Option) ([]core.SpreadEntry, string, error)
}

// PrivateAPI is the account surface of the Kraken REST API. Calls require
// credentials and are charged against the tier's private budget.
type PrivateAPI interface {
	GetAccountBalance(ctx context.Context) (map[string]apd.Decimal, error)
	GetTradeBalance(ctx context.Context, opts ...Option) (map[string]any, error)
	GetOpenOrders(ctx context.Context, opts ...Option) (map[string]any, error)
	GetClosedOrders(ctx context.Context, opts ...Option) (map[string]any, int, error)
	QueryOrdersInfo(ctx context.Context, txids []string, opts ...Option) (map[string]any, error)
	GetTradesHistory(ctx context.Context, opts ...Option) (map[string]core.TradeInfo, int, error)
	QueryTradesInfo(ctx context.Context, txids []string, opts ...Option) (map[string]core.TradeInfo, error)
	GetOpenPositions(ctx context.Context, txids []string, opts ...Option) (map[string]any, error)
	GetLedgersInfo(ctx context.Context, opts ...Option) (map[string]core.LedgerInfo, int, error)
	QueryLedgers(ctx context.Context, ids []string, opts ...Option) (map[string]core.LedgerInfo, error)
	GetTradeVolume(ctx context.Context, opts ...Option) (map[string]any, error)
}

// API combines the public and private surfaces.
type API interface {
	PublicAPI
	PrivateAPI
}
