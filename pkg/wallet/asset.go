package wallet

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"krakenex/pkg/core"
	"krakenex/pkg/exchange"
)

// MaxSellFee is the highest taker fee in percent, used as the default for
// PriceForNoLoss.
var MaxSellFee = apd.New(26, -2)

// Asset tracks the trades of one crypto currency. When quote is set only
// trades against that currency count.
type Asset struct {
	currency     *Currency
	quote        *Currency
	amount       apd.Decimal
	transactions []TradingTransaction
	lastTxID     string
}

func NewAsset(currency, quote *Currency) *Asset {
	return &Asset{currency: currency, quote: quote}
}

func (a *Asset) Currency() *Currency {
	return a.currency
}

func (a *Asset) Quote() *Currency {
	return a.quote
}

// Amount is the account balance as of the last update. It can differ from
// the amount derived from transactions because of staking and transfers.
func (a *Asset) Amount() apd.Decimal {
	return a.amount
}

func (a *Asset) HasTransactions() bool {
	return len(a.transactions) > 0
}

// Transactions returns the matching trades sorted by time.
func (a *Asset) Transactions() []TradingTransaction {
	return append([]TradingTransaction(nil), a.transactions...)
}

// Update fetches the trades after the last seen txid and refreshes the balance.
func (a *Asset) Update(ctx context.Context, api exchange.PrivateAPI, registry *Registry) error {
	txs, err := BuildTradingTransactions(ctx, api, registry, a.lastTxID)
	if err != nil {
		return fmt.Errorf("asset %s: %w", a.currency, err)
	}
	if len(txs) == 0 {
		return nil
	}
	balances, err := api.GetAccountBalance(ctx)
	if err != nil {
		return fmt.Errorf("asset %s: %w", a.currency, err)
	}
	a.apply(txs, balances)
	return nil
}

// apply merges a time-sorted batch, skipping known txids.
func (a *Asset) apply(txs []TradingTransaction, balances map[string]apd.Decimal) int {
	if len(txs) > 0 {
		a.lastTxID = txs[len(txs)-1].TxID
	}

	known := make(map[string]struct{}, len(a.transactions))
	for _, t := range a.transactions {
		known[t.TxID] = struct{}{}
	}
	added := 0
	for _, t := range txs {
		if !a.matches(&t) {
			continue
		}
		if _, ok := known[t.TxID]; ok {
			continue
		}
		known[t.TxID] = struct{}{}
		a.transactions = append(a.transactions, t)
		added++
	}
	if added > 0 {
		sort.SliceStable(a.transactions, func(i, j int) bool {
			return a.transactions[i].Time.Before(a.transactions[j].Time)
		})
	}

	balance := balances[a.currency.Symbol]
	a.amount.Set(&balance)
	return added
}

func (a *Asset) matches(t *TradingTransaction) bool {
	if !strings.EqualFold(t.Base().Symbol, a.currency.Symbol) {
		return false
	}
	return a.quote == nil || strings.EqualFold(t.Quote().Symbol, a.quote.Symbol)
}

// AssetSummary holds the aggregates of an asset's trades. Prices and the fee
// percentage are NaN when their divisor is zero.
type AssetSummary struct {
	Amount               apd.Decimal
	AmountBuy            apd.Decimal
	AmountSell           apd.Decimal
	AmountByTransactions apd.Decimal

	PriceBuyAvg  apd.Decimal
	PriceSellAvg apd.Decimal
	// PriceAvg is -Cost/Amount: what the held amount cost on average.
	PriceAvg apd.Decimal

	CostBuy  apd.Decimal
	CostSell apd.Decimal
	// Cost is CostSell - CostBuy. Negative while more was spent than earned.
	Cost apd.Decimal

	FeesBuy        apd.Decimal
	FeesSell       apd.Decimal
	Fees           apd.Decimal
	FeesPercentage apd.Decimal

	// IsLoss reports Cost - Fees <= 0.
	IsLoss bool
}

type totals struct {
	amount apd.Decimal
	cost   apd.Decimal
	fees   apd.Decimal
	n      int
}

func (t *totals) add(amount, cost, fees *apd.Decimal) error {
	if _, err := decimalCtx.Add(&t.amount, &t.amount, amount); err != nil {
		return err
	}
	if _, err := decimalCtx.Add(&t.cost, &t.cost, cost); err != nil {
		return err
	}
	if _, err := decimalCtx.Add(&t.fees, &t.fees, fees); err != nil {
		return err
	}
	t.n++
	return nil
}

// avgPrice is cost/amount, NaN without transactions.
func (t *totals) avgPrice() (apd.Decimal, error) {
	if t.n == 0 {
		return NaN(), nil
	}
	return quo(&t.cost, &t.amount)
}

func (a *Asset) Summary() (*AssetSummary, error) {
	var buy, sell totals
	for i := range a.transactions {
		t := &a.transactions[i]
		side := &buy
		if t.Side == core.SideSell {
			side = &sell
		}
		if err := side.add(&t.Amount, &t.Cost, &t.Fees); err != nil {
			return nil, fmt.Errorf("asset %s: %w", a.currency, err)
		}
	}

	s := &AssetSummary{}
	s.Amount.Set(&a.amount)
	s.AmountBuy.Set(&buy.amount)
	s.AmountSell.Set(&sell.amount)
	s.CostBuy.Set(&buy.cost)
	s.CostSell.Set(&sell.cost)
	s.FeesBuy.Set(&buy.fees)
	s.FeesSell.Set(&sell.fees)

	var err error
	if s.PriceBuyAvg, err = buy.avgPrice(); err != nil {
		return nil, err
	}
	if s.PriceSellAvg, err = sell.avgPrice(); err != nil {
		return nil, err
	}
	if _, err = decimalCtx.Sub(&s.AmountByTransactions, &buy.amount, &sell.amount); err != nil {
		return nil, err
	}
	if _, err = decimalCtx.Sub(&s.Cost, &sell.cost, &buy.cost); err != nil {
		return nil, err
	}
	if _, err = decimalCtx.Add(&s.Fees, &buy.fees, &sell.fees); err != nil {
		return nil, err
	}

	var negCost apd.Decimal
	negCost.Neg(&s.Cost)
	if s.PriceAvg, err = quo(&negCost, &a.amount); err != nil {
		return nil, err
	}

	var volume, scaled apd.Decimal
	if _, err = decimalCtx.Add(&volume, &buy.cost, &sell.cost); err != nil {
		return nil, err
	}
	if _, err = decimalCtx.Mul(&scaled, hundred, &s.Fees); err != nil {
		return nil, err
	}
	if s.FeesPercentage, err = quo(&scaled, &volume); err != nil {
		return nil, err
	}

	var net apd.Decimal
	if _, err = decimalCtx.Sub(&net, &s.Cost, &s.Fees); err != nil {
		return nil, err
	}
	s.IsLoss = net.Sign() <= 0
	return s, nil
}

// PriceForNoLoss is the lowest sell price that recovers PriceAvg plus the
// fees already paid and the sell fee (in percent, 0 to MaxSellFee):
//
//	PriceAvg * (1 + FeesPercentage/100) / (1 - feesSell/100)
func (s *AssetSummary) PriceForNoLoss(feesSell *apd.Decimal) (apd.Decimal, error) {
	if feesSell.Sign() < 0 || feesSell.Cmp(MaxSellFee) > 0 {
		return apd.Decimal{}, fmt.Errorf("%w: sell fee %s%% outside [0, %s]", core.ErrInvalidArgument, feesSell, MaxSellFee)
	}
	if IsNaN(&s.PriceAvg) || IsNaN(&s.FeesPercentage) {
		return NaN(), nil
	}

	one := apd.New(1, 0)
	var paid, sell, num, den apd.Decimal
	if _, err := decimalCtx.Quo(&paid, &s.FeesPercentage, hundred); err != nil {
		return apd.Decimal{}, err
	}
	if _, err := decimalCtx.Add(&paid, one, &paid); err != nil {
		return apd.Decimal{}, err
	}
	if _, err := decimalCtx.Quo(&sell, feesSell, hundred); err != nil {
		return apd.Decimal{}, err
	}
	if _, err := decimalCtx.Sub(&den, one, &sell); err != nil {
		return apd.Decimal{}, err
	}
	if _, err := decimalCtx.Mul(&num, &s.PriceAvg, &paid); err != nil {
		return apd.Decimal{}, err
	}
	return quo(&num, &den)
}
