package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"krakenex/pkg/exchange"
)

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrUnknownPair     = errors.New("unknown currency pair")
	ErrDuplicate       = errors.New("already registered")
)

// Registry indexes currencies and pairs by symbol and by alternative names.
// Lookups are case-insensitive.
type Registry struct {
	mu         sync.RWMutex
	currencies map[string]*Currency
	pairs      map[string]*Pair
}

func NewRegistry() *Registry {
	return &Registry{
		currencies: make(map[string]*Currency),
		pairs:      make(map[string]*Pair),
	}
}

// AddCurrency registers c under its symbol and altname.
func (r *Registry) AddCurrency(c *Currency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return addCurrency(r.currencies, c)
}

func addCurrency(index map[string]*Currency, c *Currency) error {
	symbol := strings.ToUpper(c.Symbol)
	if _, ok := index[symbol]; ok {
		return fmt.Errorf("currency %s: %w", c.Symbol, ErrDuplicate)
	}
	index[symbol] = c
	if alt := strings.ToUpper(c.AltName); alt != "" {
		if _, ok := index[alt]; !ok {
			index[alt] = c
		}
	}
	return nil
}

// AddPair registers p under its symbol, altname and websocket name.
func (r *Registry) AddPair(p *Pair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return addPair(r.pairs, p)
}

func addPair(index map[string]*Pair, p *Pair) error {
	symbol := strings.ToUpper(p.Symbol)
	if _, ok := index[symbol]; ok {
		return fmt.Errorf("pair %s: %w", p.Symbol, ErrDuplicate)
	}
	index[symbol] = p
	for _, alias := range []string{p.AltName, p.Name} {
		alias = strings.ToUpper(alias)
		if alias == "" {
			continue
		}
		if _, ok := index[alias]; !ok {
			index[alias] = p
		}
	}
	return nil
}

func (r *Registry) Currency(symbol string) (*Currency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.currencies[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, symbol)
	}
	return c, nil
}

func (r *Registry) Pair(symbol string) (*Pair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pairs[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPair, symbol)
	}
	return p, nil
}

// Currencies returns each registered currency once, sorted by symbol.
func (r *Registry) Currencies() []*Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[*Currency]struct{}, len(r.currencies))
	out := make([]*Currency, 0, len(r.currencies))
	for _, c := range r.currencies {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Pairs returns each registered pair once, sorted by symbol.
func (r *Registry) Pairs() []*Pair {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[*Pair]struct{}, len(r.pairs))
	out := make([]*Pair, 0, len(r.pairs))
	for _, p := range r.pairs {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Load replaces the registry contents with the exchange's asset and pair
// listings. Pairs quoting an unlisted currency are skipped.
func (r *Registry) Load(ctx context.Context, api exchange.PublicAPI) error {
	assets, err := api.GetAssetInfo(ctx)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	assetPairs, err := api.GetTradableAssetPairs(ctx)
	if err != nil {
		return fmt.Errorf("load asset pairs: %w", err)
	}

	currencies := make(map[string]*Currency, 2*len(assets))
	symbols := make([]string, 0, len(assets))
	for symbol := range assets {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		a := assets[symbol]
		if err := addCurrency(currencies, NewCurrency(symbol, a.AltName, a.Decimals, a.DisplayDecimals)); err != nil {
			return err
		}
	}

	pairs := make(map[string]*Pair, 3*len(assetPairs))
	symbols = symbols[:0]
	for symbol := range assetPairs {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		info := assetPairs[symbol]
		base, okBase := currencies[strings.ToUpper(info.Base)]
		quote, okQuote := currencies[strings.ToUpper(info.Quote)]
		if !okBase || !okQuote {
			continue
		}
		name := info.WSName
		if name == "" {
			name = info.AltName
		}
		p := &Pair{
			Symbol:       symbol,
			AltName:      info.AltName,
			Name:         name,
			PairDecimals: info.PairDecimals,
			Base:         base,
			Quote:        quote,
		}
		p.OrderMin.Set(&info.OrderMin)
		if err := addPair(pairs, p); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.currencies = currencies
	r.pairs = pairs
	r.mu.Unlock()
	return nil
}
