package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"krakenex/internal/circuitbreaker"
	"krakenex/internal/ratelimit"
	"krakenex/internal/transport"
	"krakenex/pkg/core"
	"krakenex/pkg/exchange"
	"krakenex/pkg/exchange/kraken"
)

// State represents the lifecycle state of a Session.
type State int

const (
	// StateActive indicates a session that is ready to process requests.
	StateActive State = iota
	// StateClosed indicates a session that has been shut down and can no longer be used.
	StateClosed
)

func (s State) String() string {
	return [...]string{"ACTIVE", "CLOSED"}[s]
}

// cacheable lists the endpoints whose results change rarely enough to be
// served from the cache.
var cacheable = map[string]struct{}{
	core.EndpointAssets:     {},
	core.EndpointAssetPairs: {},
}

// Session is a governed connection to the Kraken REST API.
// Every call is classified, admitted by the rate governor and sent through
// the signed transport. Sessions are safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	config    *core.Config
	transport core.Transport
	governor  *ratelimit.Governor
	cache     *Cache
	logger    zerolog.Logger
	state     State
	createdAt time.Time
	lastUsed  time.Time
}

var _ exchange.API = (*Session)(nil)

type Option func(*sessionOptions)

type sessionOptions struct {
	logger    zerolog.Logger
	transport core.Transport
	clock     ratelimit.Clock
}

// WithLogger sets the session logger. Config.LogLevel still filters it.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithTransport replaces the HTTP transport built from the config.
func WithTransport(t core.Transport) Option {
	return func(o *sessionOptions) {
		o.transport = t
	}
}

// WithClock replaces the wall clock used by the rate governor and the cache.
func WithClock(clock ratelimit.Clock) Option {
	return func(o *sessionOptions) {
		o.clock = clock
	}
}

// New creates a Session with the provided configuration.
// The configuration is validated before the session is created.
func New(config *core.Config, opts ...Option) (*Session, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := sessionOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if config.LogLevel != "" {
		level, err := zerolog.ParseLevel(config.LogLevel)
		if err != nil {
			level = zerolog.InfoLevel
		}
		o.logger = o.logger.Level(level)
	}

	t := o.transport
	if t == nil {
		client, err := transport.NewClient(config, o.logger)
		if err != nil {
			return nil, fmt.Errorf("create transport: %w", err)
		}
		t = client
	}

	governorOpts := []ratelimit.Option{
		ratelimit.WithLogger(o.logger),
		ratelimit.WithRetryPolicy(config.RateLimitMaxAttempts, config.RateLimitBackoff),
		ratelimit.WithCooldownPeriods(config.ExceedCooldownPeriods),
	}
	if o.clock != nil {
		governorOpts = append(governorOpts, ratelimit.WithClock(o.clock))
	}

	var cache *Cache
	if config.CacheEnabled {
		cache = NewCache(config.CacheTTL)
		if o.clock != nil {
			cache.now = o.clock.Now
		}
	}

	now := time.Now()
	return &Session{
		config:    config,
		transport: t,
		governor:  ratelimit.NewGovernor(config.Tier, governorOpts...),
		cache:     cache,
		logger:    o.logger,
		state:     StateActive,
		createdAt: now,
		lastUsed:  now,
	}, nil
}

// GateAndCall is the single entry point of every API call. It classifies
// endpoint, waits for (or, when blocking is false, checks) rate budget and
// sends the request, retrying remote rate limit errors with backoff.
//
// Unknown endpoints fail with core.ErrUnknownMethod and private endpoints
// without credentials fail with core.ErrNoCredentials, both before any
// budget is touched or any request is sent.
func (s *Session) GateAndCall(ctx context.Context, endpoint string, params core.Params, blocking bool) (json.RawMessage, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil, core.ErrClientClosed
	}
	s.lastUsed = time.Now()
	s.mu.Unlock()

	class, err := s.governor.Classify(endpoint)
	if err != nil {
		return nil, err
	}
	if class == core.ClassPrivate && !s.transport.HasCredentials() {
		return nil, fmt.Errorf("%s: %w", endpoint, core.ErrNoCredentials)
	}

	req := core.NewRequest(endpoint, class).SetParams(params)

	if _, ok := cacheable[endpoint]; ok && s.cache != nil {
		req.SetCache(endpoint+"?"+req.Form().Encode(), s.config.CacheTTL)
		cached, err := s.cache.Get(ctx, req.CacheKey)
		if err != nil {
			s.logger.Warn().Err(err).Str("cache_key", req.CacheKey).Msg("cache get error")
		}
		if cached != nil {
			s.logger.Debug().Str("cache_key", req.CacheKey).Msg("cache hit")
			return cached.(json.RawMessage), nil
		}
	}

	var result json.RawMessage
	err = s.governor.Call(ctx, endpoint, blocking, func(ctx context.Context) error {
		r, err := s.transport.Send(ctx, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.CacheKey != "" {
		if err := s.cache.Set(ctx, req.CacheKey, result, req.CacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("cache_key", req.CacheKey).Msg("cache set error")
		}
	}

	return result, nil
}

// Call is GateAndCall in blocking mode.
func (s *Session) Call(ctx context.Context, endpoint string, params core.Params) (json.RawMessage, error) {
	return s.GateAndCall(ctx, endpoint, params, true)
}

// QueryPublic calls a public endpoint and returns its normalized result:
// numeric strings become float64 and "last" stays a string. A result that is
// not a JSON object is returned under the "result" key.
func (s *Session) QueryPublic(ctx context.Context, endpoint string, params core.Params) (map[string]any, error) {
	return s.query(ctx, core.ClassPublic, endpoint, params)
}

// QueryPrivate calls a private endpoint and returns its normalized result.
func (s *Session) QueryPrivate(ctx context.Context, endpoint string, params core.Params) (map[string]any, error) {
	return s.query(ctx, core.ClassPrivate, endpoint, params)
}

func (s *Session) query(ctx context.Context, want core.EndpointClass, endpoint string, params core.Params) (map[string]any, error) {
	class, err := core.Classify(endpoint)
	if err != nil {
		return nil, err
	}
	if class != want {
		return nil, fmt.Errorf("%w: %s is not a %s endpoint", core.ErrUnknownMethod, endpoint, want)
	}

	raw, err := s.Call(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	return normalizeObject(endpoint, raw)
}

func normalizeObject(endpoint string, raw json.RawMessage) (map[string]any, error) {
	v, err := kraken.Normalize(raw)
	if err != nil {
		return nil, core.NewTransportError(endpoint, core.ErrorTypeMalformedResponse, 0, err)
	}
	if obj, ok := v.(map[string]any); ok {
		return obj, nil
	}
	return map[string]any{"result": v}, nil
}

// Close shuts down the session and releases resources.
// After closing, every call fails with core.ErrClientClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	s.state = StateClosed
	return s.transport.Close()
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Config() *core.Config {
	return s.config
}

func (s *Session) Tier() core.Tier {
	return s.governor.Tier()
}

// Limits reports the tier and both budgets' parameters and current counters.
func (s *Session) Limits() ratelimit.Limits {
	return s.governor.Limits()
}

func (s *Session) Metrics() ratelimit.MetricsSnapshot {
	return s.governor.Metrics()
}

// BreakerMetrics reports the transport's outage breaker. The second result is
// false when the transport has none.
func (s *Session) BreakerMetrics() (circuitbreaker.MetricsSnapshot, bool) {
	b, ok := s.transport.(interface {
		BreakerMetrics() circuitbreaker.MetricsSnapshot
	})
	if !ok {
		return circuitbreaker.MetricsSnapshot{}, false
	}
	return b.BreakerMetrics(), true
}

func (s *Session) HasCredentials() bool {
	return s.transport.HasCredentials()
}

func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// LastUsed returns the timestamp of the last call made through the session.
func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

// ClearCache removes all cached items. If caching is disabled, this method does nothing.
func (s *Session) ClearCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}
