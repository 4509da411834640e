// Package wallet folds the private trade and ledger history into per-currency
// aggregates: average prices, costs and fees for crypto assets, deposits and
// withdrawals for fiat funds.
package wallet

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"krakenex/pkg/exchange"
)

// DefaultQuote is the currency asset aggregates are computed against.
const DefaultQuote = "ZEUR"

// Wallet aggregates the account's trades per crypto currency and its
// deposits and withdrawals per fiat currency.
type Wallet struct {
	mu       sync.Mutex
	api      exchange.API
	registry *Registry
	logger   zerolog.Logger

	quoteSymbol string
	quote       *Currency

	currencies   map[string]*Currency
	assets       map[string]*Asset
	funds        map[string]*Fund
	lastTxID     string
	lastLedgerID string
}

type Option func(*Wallet)

func WithLogger(logger zerolog.Logger) Option {
	return func(w *Wallet) {
		w.logger = logger
	}
}

// WithQuote selects the quote currency for asset aggregates. An empty symbol
// disables the filter so trades against every quote count.
func WithQuote(symbol string) Option {
	return func(w *Wallet) {
		w.quoteSymbol = symbol
	}
}

// New creates an empty wallet; call Update to fill it. A nil registry is
// replaced by a fresh one that Update loads from the API.
func New(api exchange.API, registry *Registry, opts ...Option) *Wallet {
	if registry == nil {
		registry = NewRegistry()
	}
	w := &Wallet{
		api:         api,
		registry:    registry,
		logger:      zerolog.Nop(),
		quoteSymbol: DefaultQuote,
		currencies:  make(map[string]*Currency),
		assets:      make(map[string]*Asset),
		funds:       make(map[string]*Fund),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wallet) Registry() *Registry {
	return w.registry
}

// Update loads the registry on first use, then fetches trades and ledger
// entries newer than the last update along with the current balances.
func (w *Wallet) Update(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.registry.Currencies()) == 0 {
		if err := w.registry.Load(ctx, w.api); err != nil {
			return fmt.Errorf("wallet: %w", err)
		}
	}
	if w.quote == nil && w.quoteSymbol != "" {
		quote, err := w.registry.Currency(w.quoteSymbol)
		if err != nil {
			return fmt.Errorf("wallet quote: %w", err)
		}
		w.quote = quote
	}

	trades, err := BuildTradingTransactions(ctx, w.api, w.registry, w.lastTxID)
	if err != nil {
		return fmt.Errorf("wallet: %w", err)
	}
	funding, err := BuildFundingTransactions(ctx, w.api, w.registry, w.lastLedgerID)
	if err != nil {
		return fmt.Errorf("wallet: %w", err)
	}
	balances, err := w.api.GetAccountBalance(ctx)
	if err != nil {
		return fmt.Errorf("wallet: %w", err)
	}

	for _, t := range trades {
		w.track(t.Base())
		w.track(t.Quote())
	}
	for _, t := range funding {
		w.track(t.Currency)
	}
	for symbol := range balances {
		c, err := w.registry.Currency(symbol)
		if err != nil {
			w.logger.Debug().Str("asset", symbol).Msg("balance of unlisted asset ignored")
			continue
		}
		w.track(c)
	}

	var addedTrades, addedFunding int
	for _, a := range w.assets {
		addedTrades += a.apply(trades, balances)
	}
	for _, f := range w.funds {
		addedFunding += f.apply(funding, balances)
	}
	if len(trades) > 0 {
		w.lastTxID = trades[len(trades)-1].TxID
	}
	if len(funding) > 0 {
		w.lastLedgerID = funding[len(funding)-1].LedgerID
	}

	w.logger.Debug().
		Int("trades", len(trades)).
		Int("funding", len(funding)).
		Int("asset_transactions", addedTrades).
		Int("fund_transactions", addedFunding).
		Msg("wallet updated")
	return nil
}

// track records c as used by the account and creates its asset or fund.
func (w *Wallet) track(c *Currency) {
	key := strings.ToUpper(c.Symbol)
	if _, ok := w.currencies[key]; ok {
		return
	}
	w.currencies[key] = c
	if c.IsFiat() {
		w.funds[key] = NewFund(c)
		return
	}
	w.assets[key] = NewAsset(c, w.quote)
}

// AccountCurrencies returns every currency seen in trades, funding entries or
// balances, sorted by symbol.
func (w *Wallet) AccountCurrencies() []*Currency {
	return w.filterCurrencies(func(*Currency) bool { return true })
}

func (w *Wallet) CryptoCurrencies() []*Currency {
	return w.filterCurrencies(func(c *Currency) bool { return !c.IsFiat() })
}

func (w *Wallet) FiatCurrencies() []*Currency {
	return w.filterCurrencies(func(c *Currency) bool { return c.IsFiat() })
}

func (w *Wallet) filterCurrencies(keep func(*Currency) bool) []*Currency {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]*Currency, 0, len(w.currencies))
	for _, c := range w.currencies {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Assets returns the crypto assets sorted by symbol.
func (w *Wallet) Assets() []*Asset {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]*Asset, 0, len(w.assets))
	for _, a := range w.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].currency.Symbol < out[j].currency.Symbol })
	return out
}

func (w *Wallet) Asset(symbol string) (*Asset, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.assets[strings.ToUpper(w.canonical(symbol))]
	return a, ok
}

// Funds returns the fiat funds sorted by symbol.
func (w *Wallet) Funds() []*Fund {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]*Fund, 0, len(w.funds))
	for _, f := range w.funds {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].currency.Symbol < out[j].currency.Symbol })
	return out
}

func (w *Wallet) Fund(symbol string) (*Fund, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.funds[strings.ToUpper(w.canonical(symbol))]
	return f, ok
}

// canonical maps an altname such as XBT to its symbol XXBT.
func (w *Wallet) canonical(symbol string) string {
	if c, err := w.registry.Currency(symbol); err == nil {
		return c.Symbol
	}
	return symbol
}

// Balance returns the balance of symbol as of the last update.
func (w *Wallet) Balance(symbol string) apd.Decimal {
	if a, ok := w.Asset(symbol); ok {
		return a.Amount()
	}
	if f, ok := w.Fund(symbol); ok {
		return f.Amount()
	}
	return apd.Decimal{}
}
