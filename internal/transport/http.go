// Package transport sends Kraken REST requests: it signs private calls,
// posts them over HTTP and decodes the response envelope.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"krakenex/internal/circuitbreaker"
	khttp "krakenex/internal/http"
	"krakenex/internal/ratelimit"
	"krakenex/pkg/core"
	"krakenex/pkg/exchange/kraken"
)

// Client implements core.Transport over a resty backed HTTP client.
type Client struct {
	http    *khttp.Client
	breaker *circuitbreaker.Breaker
	apiKey  string
	secret  []byte
	nonces  *kraken.NonceSource
	clock   ratelimit.Clock
	logger  zerolog.Logger

	maxRetries   int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// NewClient creates a transport for config. Credentials are optional; without
// them only public endpoints can be sent.
func NewClient(config *core.Config, logger zerolog.Logger) (*Client, error) {
	httpClient, err := khttp.NewClient(&khttp.Config{
		BaseURL:   config.BaseURL,
		Timeout:   config.Timeout,
		UserAgent: config.UserAgent,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	c := &Client{
		http: httpClient,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.BreakerThreshold,
			SuccessThreshold: 1,
			Cooldown:         config.BreakerCooldown,
		}),
		nonces: kraken.NewNonceSource(),
		clock:  ratelimit.SystemClock{},
		logger: logger,

		maxRetries:   config.MaxRetries,
		retryWaitMin: config.RetryWaitMin,
		retryWaitMax: config.RetryWaitMax,
	}

	if creds := config.Credentials; creds != nil && creds.APIKey != "" {
		secret, err := kraken.DecodeSecret(creds.SecretKey)
		if err != nil {
			httpClient.Close()
			return nil, err
		}
		c.apiKey = creds.APIKey
		c.secret = secret
	}

	return c, nil
}

func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

func (c *Client) Close() error {
	return c.http.Close()
}

// BreakerMetrics reports the outage breaker state.
func (c *Client) BreakerMetrics() circuitbreaker.MetricsSnapshot {
	return c.breaker.Metrics()
}

// Send posts req, resending it up to MaxRetries times when the connection
// fails or times out. A private request gets a fresh nonce and signature on
// every attempt, so a resent call is never rejected as a replay. Kraken API
// errors, including rate limits, are returned after one attempt.
func (c *Client) Send(ctx context.Context, req *core.Request) (json.RawMessage, error) {
	if req.IsPrivate() && !c.HasCredentials() {
		return nil, fmt.Errorf("%s: %w", req.Endpoint, core.ErrNoCredentials)
	}

	for attempt := 0; ; attempt++ {
		result, err := c.sendOnce(ctx, req)
		if err == nil || attempt >= c.maxRetries || !retryable(ctx, req.Endpoint, err) {
			return result, err
		}

		delay := c.retryDelay(attempt)
		c.logger.Warn().Err(err).
			Str("endpoint", req.Endpoint).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("connection failed, resending")
		if err := c.clock.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) sendOnce(ctx context.Context, req *core.Request) (json.RawMessage, error) {
	path := kraken.Path(req.Class, req.Endpoint)
	form := req.Form()

	var opts []khttp.RequestOption
	if len(req.Headers) > 0 {
		opts = append(opts, khttp.WithHeaders(req.Headers))
	}

	if req.IsPrivate() {
		nonce := strconv.FormatInt(c.nonces.Next(), 10)
		form.Set("nonce", nonce)
		body := form.Encode()

		opts = append(opts,
			khttp.WithHeader(kraken.HeaderAPIKey, c.apiKey),
			khttp.WithHeader(kraken.HeaderAPISign, kraken.Sign(path, nonce, body, c.secret)),
		)
		return c.post(ctx, req.Endpoint, path, body, opts)
	}

	return c.post(ctx, req.Endpoint, path, form.Encode(), opts)
}

// retryDelay doubles RetryWaitMin per attempt, capped at RetryWaitMax.
func (c *Client) retryDelay(attempt int) time.Duration {
	delay := c.retryWaitMin
	for i := 0; i < attempt && delay < c.retryWaitMax; i++ {
		delay *= 2
	}
	if c.retryWaitMax > 0 && delay > c.retryWaitMax {
		delay = c.retryWaitMax
	}
	return delay
}

// retryable reports connection failures worth resending while the caller is
// still waiting. An open breaker is a server error and stops the loop. Orders
// and withdrawals are never resent: a timed out request may have been applied.
func retryable(ctx context.Context, endpoint string, err error) bool {
	if ctx.Err() != nil || !ratelimit.IsRetryable(endpoint) {
		return false
	}
	return core.IsNetworkError(err) || core.IsTimeoutError(err)
}

func (c *Client) post(ctx context.Context, endpoint, path, body string, opts []khttp.RequestOption) (json.RawMessage, error) {
	if !c.breaker.Allow() {
		return nil, core.NewTransportError(endpoint, core.ErrorTypeServerError, 0, circuitbreaker.ErrOpen)
	}
	result, err := c.roundTrip(ctx, endpoint, path, body, opts)
	if !errors.Is(err, core.ErrClientClosed) {
		c.breaker.Record(!isOutage(err))
	}
	return result, err
}

func (c *Client) roundTrip(ctx context.Context, endpoint, path, body string, opts []khttp.RequestOption) (json.RawMessage, error) {
	resp, err := c.http.PostForm(ctx, path, body, opts...)
	if err != nil {
		if errors.Is(err, core.ErrClientClosed) {
			return nil, err
		}
		c.logger.Error().Err(err).
			Str("endpoint", endpoint).
			Msg("http request failed")
		return nil, core.NewTransportError(endpoint, classifyTransportError(err), 0, fmt.Errorf("http request: %w", err))
	}

	result, err := kraken.ParseResponse(endpoint, resp.StatusCode, resp.Body)
	if err != nil {
		c.logger.Debug().Err(err).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("api error")
		return nil, err
	}
	return result, nil
}

// isOutage reports failures that say nothing about the request itself.
func isOutage(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return core.IsNetworkError(err) || core.IsTimeoutError(err) || core.IsServerError(err)
}

func classifyTransportError(err error) core.ErrorType {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.ErrorTypeTimeout
	}
	return core.ErrorTypeNetwork
}
