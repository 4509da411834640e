package core

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultBaseURL is the Kraken REST API host.
const DefaultBaseURL = "https://api.kraken.com"

// Credentials holds API authentication credentials.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key" validate:"required"`
	// SecretKey is the base64 encoded private key used for signing requests.
	SecretKey string `json:"secret_key" validate:"required,base64"`
}

// Config contains all configuration options for a session.
// It covers authentication, networking, rate governing and caching.
type Config struct {
	BaseURL     string       `json:"base_url" validate:"required,url"`
	Tier        Tier         `json:"tier" validate:"min=0,max=3"`
	Credentials *Credentials `json:"credentials,omitempty" validate:"omitempty"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`
	// MaxRetries is how many times the transport resends a call after a
	// connection failure or timeout, waiting RetryWaitMin doubled per attempt
	// up to RetryWaitMax. Rate limit errors go through the governor instead.
	MaxRetries   int           `json:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" validate:"min=0"`

	// RateLimitMaxAttempts is the total number of transport calls made for one
	// call that keeps hitting the remote rate limit.
	RateLimitMaxAttempts int           `json:"rate_limit_max_attempts" validate:"min=1"`
	RateLimitBackoff     time.Duration `json:"rate_limit_backoff" validate:"min=0"`
	// ExceedCooldownPeriods is how many decay periods a budget is pushed past its
	// ceiling when the server reports a violation.
	ExceedCooldownPeriods float64 `json:"exceed_cooldown_periods" validate:"min=0"`

	// BreakerThreshold consecutive network or server failures make the transport
	// fail fast for BreakerCooldown. Zero disables the breaker.
	BreakerThreshold int           `json:"breaker_threshold" validate:"min=0"`
	BreakerCooldown  time.Duration `json:"breaker_cooldown" validate:"min=0"`

	CacheEnabled bool          `json:"cache_enabled"`
	CacheTTL     time.Duration `json:"cache_ttl" validate:"min=0"`

	UserAgent string `json:"user_agent"`
	LogLevel  string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with sensible defaults.
// Default values: 30s timeout, 3 connection retries, 3 rate limit attempts with
// a 1s backoff base, 3 cool-down periods, a breaker opening for 30s after 5
// consecutive outage failures, 1m asset metadata cache.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		Tier:         TierNone,
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,

		RateLimitMaxAttempts:  3,
		RateLimitBackoff:      time.Second,
		ExceedCooldownPeriods: 3,

		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,

		CacheEnabled: true,
		CacheTTL:     time.Minute,

		UserAgent: "krakenex",
		LogLevel:  "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.RetryWaitMax < c.RetryWaitMin {
		return errors.New("RetryWaitMax must not be less than RetryWaitMin")
	}
	return nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithTier sets the account tier and returns the config for chaining.
func (c *Config) WithTier(tier Tier) *Config {
	c.Tier = tier
	return c
}

// WithBaseURL sets the API host and returns the config for chaining.
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = baseURL
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimitRetry sets the remote rate limit retry policy and returns the config for chaining.
func (c *Config) WithRateLimitRetry(maxAttempts int, backoff time.Duration) *Config {
	c.RateLimitMaxAttempts = maxAttempts
	c.RateLimitBackoff = backoff
	return c
}

// WithCache enables or disables caching with the specified TTL and returns the config for chaining.
func (c *Config) WithCache(enabled bool, ttl time.Duration) *Config {
	c.CacheEnabled = enabled
	c.CacheTTL = ttl
	return c
}

// WithCircuitBreaker sets the outage breaker and returns the config for chaining.
func (c *Config) WithCircuitBreaker(threshold int, cooldown time.Duration) *Config {
	c.BreakerThreshold = threshold
	c.BreakerCooldown = cooldown
	return c
}
