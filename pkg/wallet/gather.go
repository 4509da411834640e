package wallet

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"krakenex/pkg/core"
	"krakenex/pkg/exchange"
)

// GatherTrades pages through the trade history with increasing offsets until
// the reported count is reached or a page comes back empty.
func GatherTrades(ctx context.Context, api exchange.PrivateAPI, opts ...exchange.Option) (map[string]core.TradeInfo, error) {
	all := make(map[string]core.TradeInfo)
	offset := 0
	for {
		page, count, err := api.GetTradesHistory(ctx, append(slices.Clip(opts), exchange.WithOffset(offset))...)
		if err != nil {
			return nil, fmt.Errorf("trades history at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			return all, nil
		}
		for txid, info := range page {
			all[txid] = info
		}
		offset += len(page)
		if offset >= count {
			return all, nil
		}
	}
}

// GatherLedgers is GatherTrades for ledger entries.
func GatherLedgers(ctx context.Context, api exchange.PrivateAPI, opts ...exchange.Option) (map[string]core.LedgerInfo, error) {
	all := make(map[string]core.LedgerInfo)
	offset := 0
	for {
		page, count, err := api.GetLedgersInfo(ctx, append(slices.Clip(opts), exchange.WithOffset(offset))...)
		if err != nil {
			return nil, fmt.Errorf("ledgers at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			return all, nil
		}
		for id, info := range page {
			all[id] = info
		}
		offset += len(page)
		if offset >= count {
			return all, nil
		}
	}
}

// BuildTradingTransactions converts the trade history after start (a txid or
// unix timestamp, empty for all) into transactions sorted by time.
func BuildTradingTransactions(ctx context.Context, api exchange.PrivateAPI, registry *Registry, start string) ([]TradingTransaction, error) {
	var opts []exchange.Option
	if start != "" {
		opts = append(opts, exchange.WithStart(start))
	}
	trades, err := GatherTrades(ctx, api, opts...)
	if err != nil {
		return nil, err
	}

	txs := make([]TradingTransaction, 0, len(trades))
	for txid, info := range trades {
		pair, err := registry.Pair(info.Pair)
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", txid, err)
		}
		tx := TradingTransaction{
			Pair:      pair,
			Side:      info.Side,
			Time:      info.Time,
			TxID:      txid,
			OrderTxID: info.OrderTxID,
		}
		tx.Price.Set(&info.Price)
		tx.Amount.Set(&info.Volume)
		tx.Cost.Set(&info.Cost)
		tx.Fees.Set(&info.Fee)
		txs = append(txs, tx)
	}
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Time.Equal(txs[j].Time) {
			return txs[i].TxID < txs[j].TxID
		}
		return txs[i].Time.Before(txs[j].Time)
	})
	return txs, nil
}

// BuildFundingTransactions converts deposit and withdrawal ledger entries
// after start into transactions sorted by time. Transfers between spot and
// staking wallets are skipped.
func BuildFundingTransactions(ctx context.Context, api exchange.PrivateAPI, registry *Registry, start string) ([]FundingTransaction, error) {
	entries := make(map[string]core.LedgerInfo)
	for _, kind := range []string{"deposit", "withdrawal"} {
		opts := []exchange.Option{exchange.WithLedgerType(kind)}
		if start != "" {
			opts = append(opts, exchange.WithStart(start))
		}
		page, err := GatherLedgers(ctx, api, opts...)
		if err != nil {
			return nil, err
		}
		for id, info := range page {
			entries[id] = info
		}
	}

	txs := make([]FundingTransaction, 0, len(entries))
	for id, info := range entries {
		var kind FundingKind
		switch info.Type {
		case "transfer":
			continue
		case "deposit":
			kind = Deposit
		case "withdrawal":
			kind = Withdrawal
		default:
			return nil, fmt.Errorf("ledger %s: unexpected entry type %q", id, info.Type)
		}

		currency, err := registry.Currency(info.Asset)
		if err != nil {
			return nil, fmt.Errorf("ledger %s: %w", id, err)
		}
		tx := FundingTransaction{
			Kind:     kind,
			Currency: currency,
			Amount:   abs(&info.Amount),
			Time:     info.Time,
			LedgerID: id,
		}
		tx.Fees.Set(&info.Fee)
		txs = append(txs, tx)
	}
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Time.Equal(txs[j].Time) {
			return txs[i].LedgerID < txs[j].LedgerID
		}
		return txs[i].Time.Before(txs[j].Time)
	})
	return txs, nil
}
