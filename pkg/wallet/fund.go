package wallet

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"krakenex/pkg/exchange"
)

// Fund tracks deposits and withdrawals of one fiat currency.
type Fund struct {
	currency     *Currency
	amount       apd.Decimal
	transactions []FundingTransaction
	lastLedgerID string
}

func NewFund(currency *Currency) *Fund {
	return &Fund{currency: currency}
}

func (f *Fund) Currency() *Currency {
	return f.currency
}

// Amount is the account balance as of the last update.
func (f *Fund) Amount() apd.Decimal {
	return f.amount
}

func (f *Fund) HasTransactions() bool {
	return len(f.transactions) > 0
}

func (f *Fund) Transactions() []FundingTransaction {
	return append([]FundingTransaction(nil), f.transactions...)
}

// Update fetches ledger entries after the last seen ledger id and refreshes
// the balance.
func (f *Fund) Update(ctx context.Context, api exchange.PrivateAPI, registry *Registry) error {
	txs, err := BuildFundingTransactions(ctx, api, registry, f.lastLedgerID)
	if err != nil {
		return fmt.Errorf("fund %s: %w", f.currency, err)
	}
	if len(txs) == 0 {
		return nil
	}
	balances, err := api.GetAccountBalance(ctx)
	if err != nil {
		return fmt.Errorf("fund %s: %w", f.currency, err)
	}
	f.apply(txs, balances)
	return nil
}

func (f *Fund) apply(txs []FundingTransaction, balances map[string]apd.Decimal) int {
	if len(txs) > 0 {
		f.lastLedgerID = txs[len(txs)-1].LedgerID
	}

	known := make(map[string]struct{}, len(f.transactions))
	for _, t := range f.transactions {
		known[t.LedgerID] = struct{}{}
	}
	added := 0
	for _, t := range txs {
		if !strings.EqualFold(t.Currency.Symbol, f.currency.Symbol) {
			continue
		}
		if _, ok := known[t.LedgerID]; ok {
			continue
		}
		known[t.LedgerID] = struct{}{}
		f.transactions = append(f.transactions, t)
		added++
	}
	if added > 0 {
		sort.SliceStable(f.transactions, func(i, j int) bool {
			return f.transactions[i].Time.Before(f.transactions[j].Time)
		})
	}

	balance := balances[f.currency.Symbol]
	f.amount.Set(&balance)
	return added
}

type FundSummary struct {
	Amount               apd.Decimal
	AmountDeposit        apd.Decimal
	AmountWithdrawal     apd.Decimal
	AmountByTransactions apd.Decimal

	FeesDeposit    apd.Decimal
	FeesWithdrawal apd.Decimal
	Fees           apd.Decimal
	// FeesPercentage is 100 * Fees / (AmountDeposit + AmountWithdrawal), NaN
	// without transactions.
	FeesPercentage apd.Decimal
}

func (f *Fund) Summary() (*FundSummary, error) {
	var deposit, withdrawal totals
	var zero apd.Decimal
	for i := range f.transactions {
		t := &f.transactions[i]
		side := &deposit
		if t.Kind == Withdrawal {
			side = &withdrawal
		}
		if err := side.add(&t.Amount, &zero, &t.Fees); err != nil {
			return nil, fmt.Errorf("fund %s: %w", f.currency, err)
		}
	}

	s := &FundSummary{}
	s.Amount.Set(&f.amount)
	s.AmountDeposit.Set(&deposit.amount)
	s.AmountWithdrawal.Set(&withdrawal.amount)
	s.FeesDeposit.Set(&deposit.fees)
	s.FeesWithdrawal.Set(&withdrawal.fees)

	if _, err := decimalCtx.Sub(&s.AmountByTransactions, &deposit.amount, &withdrawal.amount); err != nil {
		return nil, err
	}
	if _, err := decimalCtx.Add(&s.Fees, &deposit.fees, &withdrawal.fees); err != nil {
		return nil, err
	}

	var volume, scaled apd.Decimal
	if _, err := decimalCtx.Add(&volume, &deposit.amount, &withdrawal.amount); err != nil {
		return nil, err
	}
	if _, err := decimalCtx.Mul(&scaled, hundred, &s.Fees); err != nil {
		return nil, err
	}
	pct, err := quo(&scaled, &volume)
	if err != nil {
		return nil, err
	}
	s.FeesPercentage = pct
	return s, nil
}
