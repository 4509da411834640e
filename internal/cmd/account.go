package cmd

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"krakenex/pkg/core"
	"krakenex/pkg/exchange"
	"krakenex/pkg/session"
	"krakenex/pkg/wallet"
)

func (a *app) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the account balance of every asset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				balances, err := s.GetAccountBalance(cmd.Context())
				if err != nil {
					return err
				}

				out := make(map[string]string, len(balances))
				rows := make([]table.Row, 0, len(balances))
				for _, asset := range sortedKeys(balances) {
					amount := decimalString(balances[asset])
					out[asset] = amount
					rows = append(rows, table.Row{asset, amount})
				}
				if a.jsonOutput() {
					return a.printJSON(out)
				}
				return a.printTable("", table.Row{"Asset", "Balance"}, rows)
			})
		},
	}
}

type ledgerRow struct {
	ID      string `json:"id"`
	RefID   string `json:"refid"`
	Time    string `json:"time"`
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
	Fee     string `json:"fee"`
	Balance string `json:"balance"`
}

func (a *app) ledgersCmd() *cobra.Command {
	var (
		ledgerType string
		assets     []string
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "ledgers",
		Short: "List all ledger entries, following pagination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				opts := []exchange.Option{exchange.WithLedgerType(ledgerType), exchange.WithStart(start), exchange.WithEnd(end)}
				if len(assets) > 0 {
					opts = append(opts, exchange.WithAssets(assets...))
				}
				ledgers, err := wallet.GatherLedgers(cmd.Context(), s, opts...)
				if err != nil {
					return err
				}

				entries := make([]core.LedgerInfo, 0, len(ledgers))
				for _, l := range ledgers {
					entries = append(entries, l)
				}
				sort.Slice(entries, func(i, j int) bool { return entries[i].Time.Before(entries[j].Time) })

				out := make([]ledgerRow, 0, len(entries))
				rows := make([]table.Row, 0, len(entries))
				for _, l := range entries {
					r := ledgerRow{
						ID:      l.LedgerID,
						RefID:   l.RefID,
						Time:    timeString(l.Time),
						Type:    l.Type,
						Subtype: l.Subtype,
						Asset:   l.Asset,
						Amount:  decimalString(l.Amount),
						Fee:     decimalString(l.Fee),
						Balance: decimalString(l.Balance),
					}
					out = append(out, r)
					rows = append(rows, table.Row{r.Time, r.ID, r.Type, r.Asset, r.Amount, r.Fee, r.Balance})
				}
				if a.jsonOutput() {
					return a.printJSON(out)
				}
				return a.printTable("", table.Row{"Time", "Ledger ID", "Type", "Asset", "Amount", "Fee", "Balance"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&ledgerType, "type", "all", "ledger entry type, one of "+joinValues(exchange.LedgerTypes))
	cmd.Flags().StringSliceVar(&assets, "asset", nil, "restrict to these assets")
	cmd.Flags().StringVar(&start, "start", "", "entries after this unix time or ledger id")
	cmd.Flags().StringVar(&end, "end", "", "entries up to this unix time or ledger id")
	return cmd
}

type tradeRow struct {
	TxID      string `json:"txid"`
	OrderTxID string `json:"ordertxid"`
	Time      string `json:"time"`
	Pair      string `json:"pair"`
	Side      string `json:"type"`
	OrderType string `json:"ordertype"`
	Price     string `json:"price"`
	Volume    string `json:"vol"`
	Cost      string `json:"cost"`
	Fee       string `json:"fee"`
}

func (a *app) tradesCmd() *cobra.Command {
	var (
		tradeType  string
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List the account's trade history, following pagination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				trades, err := wallet.GatherTrades(cmd.Context(), s,
					exchange.WithTradeType(tradeType), exchange.WithStart(start), exchange.WithEnd(end))
				if err != nil {
					return err
				}

				entries := make([]core.TradeInfo, 0, len(trades))
				for _, t := range trades {
					entries = append(entries, t)
				}
				sort.Slice(entries, func(i, j int) bool { return entries[i].Time.Before(entries[j].Time) })

				out := make([]tradeRow, 0, len(entries))
				rows := make([]table.Row, 0, len(entries))
				for _, t := range entries {
					r := tradeRow{
						TxID:      t.TxID,
						OrderTxID: t.OrderTxID,
						Time:      timeString(t.Time),
						Pair:      t.Pair,
						Side:      t.Side.String(),
						OrderType: t.OrderType.String(),
						Price:     decimalString(t.Price),
						Volume:    decimalString(t.Volume),
						Cost:      decimalString(t.Cost),
						Fee:       decimalString(t.Fee),
					}
					out = append(out, r)
					rows = append(rows, table.Row{r.Time, r.TxID, r.Pair, r.Side, r.OrderType, r.Price, r.Volume, r.Cost, r.Fee})
				}
				if a.jsonOutput() {
					return a.printJSON(out)
				}
				return a.printTable("", table.Row{"Time", "TxID", "Pair", "Side", "Order", "Price", "Volume", "Cost", "Fee"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&tradeType, "type", "all", "trade type, one of "+joinValues(exchange.TradeTypes))
	cmd.Flags().StringVar(&start, "start", "", "trades after this unix time or txid")
	cmd.Flags().StringVar(&end, "end", "", "trades up to this unix time or txid")
	return cmd
}
