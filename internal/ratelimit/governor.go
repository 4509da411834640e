package ratelimit

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"krakenex/pkg/core"
)

// Retry policy defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = time.Second
)

// PublicBudget admits one public call per second.
var PublicBudget = BudgetConfig{Ceiling: 1, UnitCost: 1, DecayRate: 1}

// TierBudget returns the private budget parameters of an account tier.
func TierBudget(tier core.Tier) BudgetConfig {
	switch tier {
	case core.TierStarter:
		return BudgetConfig{Ceiling: 15, UnitCost: 1, DecayRate: 0.33}
	case core.TierIntermediate:
		return BudgetConfig{Ceiling: 20, UnitCost: 1, DecayRate: 0.5}
	case core.TierPro:
		return BudgetConfig{Ceiling: 20, UnitCost: 1, DecayRate: 1}
	default:
		return BudgetConfig{Ceiling: math.Inf(1), UnitCost: 0, DecayRate: 0}
	}
}

// endpointCosts lists private endpoints that do not cost one unit.
var endpointCosts = map[string]float64{
	core.EndpointLedgers:       2,
	core.EndpointTradesHistory: 2,
	core.EndpointClosedOrders:  2,
	core.EndpointAddOrder:      0,
	core.EndpointCancelOrder:   0,
}

// nonRetryable endpoints have side effects a blind retry could duplicate.
var nonRetryable = map[string]struct{}{
	core.EndpointAddOrder:       {},
	core.EndpointCancelOrder:    {},
	core.EndpointWithdraw:       {},
	core.EndpointWithdrawCancel: {},
	core.EndpointWalletTransfer: {},
	core.EndpointAddExport:      {},
	core.EndpointRemoveExport:   {},
}

// Option configures a Governor or a Budget.
type Option func(*options)

type options struct {
	clock       Clock
	logger      zerolog.Logger
	maxAttempts int
	backoff     time.Duration
	cooldown    float64
}

func buildOptions(opts []Option) options {
	o := options{
		clock:       SystemClock{},
		logger:      zerolog.Nop(),
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		cooldown:    DefaultCooldownPeriods,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRetryPolicy sets the total number of transport calls allowed for a call
// that keeps hitting the remote rate limit, and the backoff base delay.
func WithRetryPolicy(maxAttempts int, backoff time.Duration) Option {
	return func(o *options) {
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
		if backoff >= 0 {
			o.backoff = backoff
		}
	}
}

// WithCooldownPeriods sets how far MarkExceeded pushes a counter, in decay periods.
func WithCooldownPeriods(periods float64) Option {
	return func(o *options) {
		if periods >= 0 {
			o.cooldown = periods
		}
	}
}

// Governor is the single gate every outbound call passes through.
// It owns one budget for public endpoints and one for private endpoints.
type Governor struct {
	tier        core.Tier
	public      *Budget
	private     *Budget
	clock       Clock
	maxAttempts int
	backoff     time.Duration
	logger      zerolog.Logger
	waitLog     *rate.Sometimes
	metrics     *Metrics
}

// Metrics tracks statistics about governor usage.
type Metrics struct {
	gated          atomic.Int64
	admitted       atomic.Int64
	denied         atomic.Int64
	waited         atomic.Int64
	remoteLimits   atomic.Int64
	retries        atomic.Int64
	retryExhausted atomic.Int64
}

// NewGovernor creates a governor for an account tier. The tier is fixed for
// the governor's lifetime.
func NewGovernor(tier core.Tier, opts ...Option) *Governor {
	o := buildOptions(opts)
	return &Governor{
		tier:        tier,
		public:      NewBudget(PublicBudget, opts...),
		private:     NewBudget(TierBudget(tier), opts...),
		clock:       o.clock,
		maxAttempts: o.maxAttempts,
		backoff:     o.backoff,
		logger:      o.logger,
		waitLog:     &rate.Sometimes{First: 1, Interval: 10 * time.Second},
		metrics:     &Metrics{},
	}
}

// Tier returns the account tier the private budget was built for.
func (g *Governor) Tier() core.Tier {
	return g.tier
}

// Classify returns the class of an endpoint, or core.ErrUnknownMethod.
func (g *Governor) Classify(endpoint string) (core.EndpointClass, error) {
	return core.Classify(endpoint)
}

// CostFor returns the cost of a private endpoint. For public endpoints it
// returns false, meaning the budget's unit cost applies.
func (g *Governor) CostFor(endpoint string) (float64, bool) {
	class, err := core.Classify(endpoint)
	if err != nil || class == core.ClassPublic {
		return 0, false
	}
	if cost, ok := endpointCosts[endpoint]; ok {
		return cost, true
	}
	return 1, true
}

// IsRetryable reports whether a remote rate limit error on endpoint may be
// retried automatically.
func (g *Governor) IsRetryable(endpoint string) bool {
	return IsRetryable(endpoint)
}

// IsRetryable reports whether endpoint may be sent again without the caller
// asking for it.
func IsRetryable(endpoint string) bool {
	_, ok := nonRetryable[endpoint]
	return !ok
}

// Budget returns the budget of an endpoint class.
func (g *Governor) Budget(class core.EndpointClass) *Budget {
	if class == core.ClassPrivate {
		return g.private
	}
	return g.public
}

func (g *Governor) resolve(endpoint string) (*Budget, float64, error) {
	class, err := g.Classify(endpoint)
	if err != nil {
		return nil, 0, err
	}
	budget := g.Budget(class)
	cost, ok := g.CostFor(endpoint)
	if !ok {
		cost = budget.UnitCost()
	}
	return budget, cost, nil
}

// Gate charges the endpoint's cost to its budget. In blocking mode it waits
// until the cost is admitted or ctx is done; otherwise it reports whether the
// cost was admitted right away.
func (g *Governor) Gate(ctx context.Context, endpoint string, blocking bool) (bool, error) {
	budget, cost, err := g.resolve(endpoint)
	if err != nil {
		return false, err
	}
	g.metrics.gated.Add(1)

	if !blocking {
		if !budget.Check(cost) {
			g.metrics.denied.Add(1)
			return false, nil
		}
		g.metrics.admitted.Add(1)
		return true, nil
	}

	if wait := budget.Wait(cost); wait > 0 {
		g.metrics.waited.Add(1)
		g.waitLog.Do(func() {
			g.logger.Debug().
				Str("endpoint", endpoint).
				Float64("cost", cost).
				Dur("wait", wait).
				Msg("waiting for rate budget")
		})
	}
	if err := budget.CheckAndWait(ctx, cost); err != nil {
		g.metrics.denied.Add(1)
		return false, err
	}
	g.metrics.admitted.Add(1)
	return true, nil
}

// OnRemoteRateLimit resynchronizes the endpoint's budget after the server
// reported a rate limit violation.
func (g *Governor) OnRemoteRateLimit(endpoint string) {
	class, err := g.Classify(endpoint)
	if err != nil {
		return
	}
	g.Budget(class).MarkExceeded()
}

// Limits is a point-in-time view of both budgets.
type Limits struct {
	Tier    core.Tier
	Public  BudgetSnapshot
	Private BudgetSnapshot
}

// BudgetSnapshot captures a budget's parameters and counter.
type BudgetSnapshot struct {
	BudgetConfig
	Counter float64
}

// Limits decays both budgets and reports their state.
func (g *Governor) Limits() Limits {
	snapshot := func(b *Budget) BudgetSnapshot {
		b.Decay()
		return BudgetSnapshot{BudgetConfig: b.Config(), Counter: b.Counter()}
	}
	return Limits{
		Tier:    g.tier,
		Public:  snapshot(g.public),
		Private: snapshot(g.private),
	}
}

// Metrics returns a snapshot of the current governor statistics.
func (g *Governor) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		GatedCalls:       g.metrics.gated.Load(),
		AdmittedCalls:    g.metrics.admitted.Load(),
		DeniedCalls:      g.metrics.denied.Load(),
		WaitedCalls:      g.metrics.waited.Load(),
		RemoteRateLimits: g.metrics.remoteLimits.Load(),
		Retries:          g.metrics.retries.Load(),
		RetriesExhausted: g.metrics.retryExhausted.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of governor statistics.
type MetricsSnapshot struct {
	// GatedCalls is the number of calls that reached a budget.
	GatedCalls int64
	// AdmittedCalls is the number of calls a budget admitted.
	AdmittedCalls int64
	// DeniedCalls counts non-blocking denials and cancelled waits.
	DeniedCalls int64
	// WaitedCalls is the number of blocking calls that had to wait.
	WaitedCalls int64
	// RemoteRateLimits is the number of rate limit errors returned by the server.
	RemoteRateLimits int64
	// Retries is the number of raw retry transport calls.
	Retries int64
	// RetriesExhausted counts calls that failed after the last allowed attempt.
	RetriesExhausted int64
}
