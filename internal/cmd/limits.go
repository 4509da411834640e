package cmd

import (
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"krakenex/internal/ratelimit"
	"krakenex/pkg/session"
)

type budgetReport struct {
	Class     string  `json:"class"`
	Ceiling   float64 `json:"ceiling,omitempty"`
	DecayRate float64 `json:"decay_rate,omitempty"`
	Counter   float64 `json:"counter"`
	Unlimited bool    `json:"unlimited"`
}

func (a *app) limitsCmd() *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Show the call rate budgets of the configured tier",
		Long: `Show the call rate budgets of the configured tier.

With --probe a public and, when credentials are set, a private call are made
first so the counters reflect their cost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session.Session) error {
				if probe {
					if _, err := s.GetServerTime(cmd.Context()); err != nil {
						return err
					}
					if s.HasCredentials() {
						if _, err := s.GetAccountBalance(cmd.Context()); err != nil {
							return err
						}
					}
				}

				limits := s.Limits()
				budgets := []budgetReport{
					newBudgetReport("public", limits.Public),
					newBudgetReport("private", limits.Private),
				}
				breaker, hasBreaker := s.BreakerMetrics()
				if a.jsonOutput() {
					out := map[string]any{
						"tier":    limits.Tier.String(),
						"budgets": budgets,
						"metrics": s.Metrics(),
					}
					if hasBreaker {
						out["breaker"] = breaker
					}
					return a.printJSON(out)
				}

				rows := make([]table.Row, 0, len(budgets))
				for _, b := range budgets {
					if b.Unlimited {
						rows = append(rows, table.Row{b.Class, "unlimited", "-", b.Counter})
						continue
					}
					rows = append(rows, table.Row{b.Class, b.Ceiling, b.DecayRate, b.Counter})
				}
				title := "Tier " + limits.Tier.String()
				if hasBreaker {
					title += ", breaker " + breaker.CurrentState
				}
				return a.printTable(title, table.Row{"Class", "Ceiling", "Decay/s", "Counter"}, rows)
			})
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "make a call per endpoint class before reporting")
	return cmd
}

func newBudgetReport(class string, b ratelimit.BudgetSnapshot) budgetReport {
	r := budgetReport{Class: class, Counter: b.Counter, Unlimited: b.Unlimited()}
	if !r.Unlimited && !math.IsInf(b.Ceiling, 1) {
		r.Ceiling = b.Ceiling
		r.DecayRate = b.DecayRate
	}
	return r
}
