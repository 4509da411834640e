// Package ratelimit implements the decaying call budgets Kraken uses for its
// REST rate limits, the governor that routes endpoints to them, and the retry
// policy applied when the server reports a violation anyway.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"krakenex/pkg/core"
)

// DefaultCooldownPeriods is how many decay periods MarkExceeded pushes a budget
// past its ceiling.
const DefaultCooldownPeriods = 3

// BudgetConfig holds the parameters of a budget.
type BudgetConfig struct {
	// Ceiling is the maximum accumulated cost. math.Inf(1) disables the budget.
	Ceiling float64
	// UnitCost is charged when the caller has no cost of its own.
	UnitCost float64
	// DecayRate is the number of cost units recovered per second.
	DecayRate float64
}

// Unlimited reports whether the budget never blocks.
func (c BudgetConfig) Unlimited() bool {
	return math.IsInf(c.Ceiling, 1)
}

// Budget is a counter of consumed cost that decays linearly over time.
// All methods are safe for concurrent use; decay and admission happen under
// one lock so concurrent callers cannot both take the last unit.
type Budget struct {
	mu        sync.Mutex
	config    BudgetConfig
	cooldown  float64
	counter   float64
	lastDecay time.Time
	clock     Clock
}

// NewBudget creates an empty budget. Only the clock and cooldown options apply.
func NewBudget(config BudgetConfig, opts ...Option) *Budget {
	o := buildOptions(opts)
	return &Budget{
		config:    config,
		cooldown:  o.cooldown,
		clock:     o.clock,
		lastDecay: o.clock.Now(),
	}
}

// Config returns the budget parameters.
func (b *Budget) Config() BudgetConfig {
	return b.config
}

// UnitCost returns the default cost of a call.
func (b *Budget) UnitCost() float64 {
	return b.config.UnitCost
}

// Counter returns the accumulated cost as of the last decay.
func (b *Budget) Counter() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counter
}

// Decay applies the recovery accrued since the last decay.
func (b *Budget) Decay() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decayLocked()
}

func (b *Budget) decayLocked() {
	now := b.clock.Now()
	elapsed := now.Sub(b.lastDecay).Seconds()
	if elapsed > 0 {
		b.counter = math.Max(0, b.counter-b.config.DecayRate*elapsed)
	}
	b.lastDecay = now
}

// TimeToCall returns the seconds to wait before cost fits under the ceiling,
// based on the counter as of the last decay. It returns +Inf when the budget is
// exceeded and never decays.
func (b *Budget) TimeToCall(cost float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timeToCallLocked(cost)
}

func (b *Budget) timeToCallLocked(cost float64) float64 {
	if b.canCallLocked(cost) {
		return 0
	}
	if b.config.DecayRate <= 0 {
		return math.Inf(1)
	}
	return (b.counter + cost - b.config.Ceiling) / b.config.DecayRate
}

// CanCall reports whether cost fits under the ceiling without decaying first.
func (b *Budget) CanCall(cost float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canCallLocked(cost)
}

func (b *Budget) canCallLocked(cost float64) bool {
	return b.counter+cost <= b.config.Ceiling
}

// Check decays and admits cost if it fits. It never blocks.
func (b *Budget) Check(cost float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decayLocked()
	if !b.canCallLocked(cost) {
		return false
	}
	b.counter += cost
	return true
}

// CheckAndWait blocks until cost can be admitted, then admits it.
// The wait is recomputed after every sleep because other callers may have
// taken the recovered capacity in the meantime. A cost above the ceiling can
// never fit and fails with core.ErrInvalidArgument.
func (b *Budget) CheckAndWait(ctx context.Context, cost float64) error {
	if !b.config.Unlimited() && cost > b.config.Ceiling {
		return fmt.Errorf("%w: cost %g exceeds budget ceiling %g", core.ErrInvalidArgument, cost, b.config.Ceiling)
	}
	for {
		b.mu.Lock()
		b.decayLocked()
		wait := b.timeToCallLocked(cost)
		if wait == 0 {
			b.counter += cost
			b.mu.Unlock()
			return nil
		}
		b.mu.Unlock()

		if math.IsInf(wait, 1) {
			return core.ErrBudgetStalled
		}
		if err := b.clock.Sleep(ctx, secondsToDuration(wait)); err != nil {
			return err
		}
	}
}

// Wait returns how long CheckAndWait would currently sleep for cost.
func (b *Budget) Wait(cost float64) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decayLocked()
	wait := b.timeToCallLocked(cost)
	if math.IsInf(wait, 1) {
		return time.Duration(math.MaxInt64)
	}
	return secondsToDuration(wait)
}

// MarkExceeded forces the counter over the ceiling after the server reported a
// violation the local model did not predict. Unlimited budgets are left alone.
func (b *Budget) MarkExceeded() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.config.Unlimited() {
		return
	}
	b.counter = b.config.Ceiling + b.cooldown*b.config.DecayRate
	b.lastDecay = b.clock.Now()
}
