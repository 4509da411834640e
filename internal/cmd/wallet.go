package cmd

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"krakenex/pkg/session"
	"krakenex/pkg/wallet"
)

type assetReport struct {
	Currency       string `json:"currency"`
	Amount         string `json:"amount"`
	AmountBuy      string `json:"amount_buy"`
	AmountSell     string `json:"amount_sell"`
	PriceBuyAvg    string `json:"price_buy_avg"`
	PriceSellAvg   string `json:"price_sell_avg"`
	PriceAvg       string `json:"price_avg"`
	PriceForNoLoss string `json:"price_for_noloss"`
	Cost           string `json:"cost"`
	Fees           string `json:"fees"`
	FeesPercentage string `json:"fees_percentage"`
	IsLoss         bool   `json:"is_loss"`
}

type fundReport struct {
	Currency         string `json:"currency"`
	Amount           string `json:"amount"`
	AmountDeposit    string `json:"amount_deposit"`
	AmountWithdrawal string `json:"amount_withdrawal"`
	Fees             string `json:"fees"`
	FeesPercentage   string `json:"fees_percentage"`
}

func (a *app) walletCmd() *cobra.Command {
	var (
		quote   string
		sellFee float64
	)
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Summarize trades per crypto asset and funding per fiat currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var fee apd.Decimal
			if _, err := fee.SetFloat64(sellFee); err != nil {
				return err
			}

			return a.withSession(func(s *session.Session) error {
				w := wallet.New(s, nil, wallet.WithQuote(quote), wallet.WithLogger(a.logger))
				if err := w.Update(cmd.Context()); err != nil {
					return err
				}

				assets, err := buildAssetReports(w, &fee)
				if err != nil {
					return err
				}
				funds, err := buildFundReports(w)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.printJSON(map[string]any{"assets": assets, "funds": funds})
				}

				assetRows := make([]table.Row, 0, len(assets))
				for _, r := range assets {
					assetRows = append(assetRows, table.Row{
						r.Currency, r.Amount, r.PriceBuyAvg, r.PriceSellAvg, r.PriceAvg,
						r.PriceForNoLoss, r.Cost, r.Fees, r.FeesPercentage, r.IsLoss,
					})
				}
				if err := a.printTable("Assets ("+quote+")",
					table.Row{"Currency", "Amount", "Buy Avg", "Sell Avg", "Avg", "No Loss", "Cost", "Fees", "Fees %", "Loss"},
					assetRows); err != nil {
					return err
				}

				fundRows := make([]table.Row, 0, len(funds))
				for _, r := range funds {
					fundRows = append(fundRows, table.Row{r.Currency, r.Amount, r.AmountDeposit, r.AmountWithdrawal, r.Fees, r.FeesPercentage})
				}
				return a.printTable("Funds",
					table.Row{"Currency", "Amount", "Deposits", "Withdrawals", "Fees", "Fees %"},
					fundRows)
			})
		},
	}
	cmd.Flags().StringVar(&quote, "quote", wallet.DefaultQuote, "quote currency of asset prices")
	cmd.Flags().Float64Var(&sellFee, "sell-fee", 0.26, "sell fee in percent used for the no-loss price")
	return cmd
}

func buildAssetReports(w *wallet.Wallet, sellFee *apd.Decimal) ([]assetReport, error) {
	var reports []assetReport
	for _, asset := range w.Assets() {
		if !asset.HasTransactions() {
			continue
		}
		s, err := asset.Summary()
		if err != nil {
			return nil, err
		}
		noLoss, err := s.PriceForNoLoss(sellFee)
		if err != nil {
			return nil, err
		}

		c := asset.Currency()
		price := c
		if q := asset.Quote(); q != nil {
			price = q
		}
		reports = append(reports, assetReport{
			Currency:       c.Symbol,
			Amount:         c.FormatValue(&s.Amount),
			AmountBuy:      c.FormatValue(&s.AmountBuy),
			AmountSell:     c.FormatValue(&s.AmountSell),
			PriceBuyAvg:    price.FormatValue(&s.PriceBuyAvg),
			PriceSellAvg:   price.FormatValue(&s.PriceSellAvg),
			PriceAvg:       price.FormatValue(&s.PriceAvg),
			PriceForNoLoss: price.FormatValue(&noLoss),
			Cost:           price.FormatValue(&s.Cost),
			Fees:           price.FormatValue(&s.Fees),
			FeesPercentage: wallet.FormatPercent(&s.FeesPercentage, 3),
			IsLoss:         s.IsLoss,
		})
	}
	return reports, nil
}

func buildFundReports(w *wallet.Wallet) ([]fundReport, error) {
	var reports []fundReport
	for _, fund := range w.Funds() {
		if !fund.HasTransactions() {
			continue
		}
		s, err := fund.Summary()
		if err != nil {
			return nil, err
		}
		c := fund.Currency()
		reports = append(reports, fundReport{
			Currency:         c.Symbol,
			Amount:           c.FormatValue(&s.Amount),
			AmountDeposit:    c.FormatValue(&s.AmountDeposit),
			AmountWithdrawal: c.FormatValue(&s.AmountWithdrawal),
			Fees:             c.FormatValue(&s.Fees),
			FeesPercentage:   wallet.FormatPercent(&s.FeesPercentage, 3),
		})
	}
	return reports, nil
}
