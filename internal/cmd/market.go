package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"krakenex/pkg/exchange"
	"krakenex/pkg/session"
)

func (a *app) timeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "time",
		Short: "Show the exchange server time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				st, err := s.GetServerTime(cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.printJSON(map[string]any{"unixtime": st.Time.Unix(), "rfc1123": st.RFC1123})
				}
				return a.printTable("", table.Row{"Unix", "RFC1123"}, []table.Row{{st.Time.Unix(), st.RFC1123}})
			})
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the exchange system status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				status, err := s.GetSystemStatus(cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.printJSON(map[string]string{"status": status.Status, "timestamp": timeString(status.Timestamp)})
				}
				return a.printTable("", table.Row{"Status", "Timestamp"}, []table.Row{{status.Status, timeString(status.Timestamp)}})
			})
		},
	}
}

func (a *app) tickerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ticker PAIR...",
		Short: "Show ask, bid and last trade prices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				ticker, err := s.GetTickerInformation(cmd.Context(), args...)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.printJSON(ticker)
				}

				rows := make([]table.Row, 0, len(ticker))
				for _, pair := range sortedKeys(ticker) {
					info, _ := ticker[pair].(map[string]any)
					rows = append(rows, table.Row{
						pair,
						tickerField(info, "a", 0),
						tickerField(info, "b", 0),
						tickerField(info, "c", 0),
						tickerField(info, "v", 1),
						tickerField(info, "l", 1),
						tickerField(info, "h", 1),
					})
				}
				return a.printTable("", table.Row{"Pair", "Ask", "Bid", "Last", "Volume 24h", "Low 24h", "High 24h"}, rows)
			})
		},
	}
}

// tickerField picks element idx of a ticker array such as "a" (ask).
func tickerField(info map[string]any, key string, idx int) any {
	values, ok := info[key].([]any)
	if !ok || idx >= len(values) {
		return "-"
	}
	return values[idx]
}

func (a *app) ohlcCmd() *cobra.Command {
	var (
		interval int
		since    string
	)
	cmd := &cobra.Command{
		Use:   "ohlc PAIR",
		Short: "Show OHLC candles of a pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				opts := []exchange.Option{exchange.WithInterval(interval)}
				if since != "" {
					opts = append(opts, exchange.WithSince(since))
				}
				candles, last, err := s.GetOHLCData(cmd.Context(), args[0], opts...)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.printJSON(map[string]any{"pair": args[0], "candles": candles, "last": last})
				}

				rows := make([]table.Row, 0, len(candles))
				for _, c := range candles {
					rows = append(rows, table.Row{timeString(c.Time), c.Open, c.High, c.Low, c.Close, c.VWAP, c.Volume, c.Count})
				}
				title := fmt.Sprintf("%s %dm (last %s)", args[0], interval, last)
				return a.printTable(title, table.Row{"Time", "Open", "High", "Low", "Close", "VWAP", "Volume", "Trades"}, rows)
			})
		},
	}
	cmd.Flags().IntVar(&interval, "interval", 1, fmt.Sprintf("candle interval in minutes, one of %v", exchange.OHLCIntervals))
	cmd.Flags().StringVar(&since, "since", "", "return candles after this cursor")
	return cmd
}
