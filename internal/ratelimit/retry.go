package ratelimit

import (
	"context"
	"fmt"
	"time"

	"krakenex/pkg/core"
)

// SendFunc performs one transport call.
type SendFunc func(ctx context.Context) error

// Call gates endpoint against its budget, then invokes send. Remote rate limit
// errors are retried with exponential backoff unless the endpoint is
// non-retryable; every other outcome of send is returned unchanged.
//
// Unknown endpoints fail before any budget is touched. A non-blocking call the
// budget cannot admit returns core.ErrBudgetExhausted without calling send.
func (g *Governor) Call(ctx context.Context, endpoint string, blocking bool, send SendFunc) error {
	class, err := g.Classify(endpoint)
	if err != nil {
		return err
	}

	admitted, err := g.Gate(ctx, endpoint, blocking)
	if err != nil {
		return fmt.Errorf("rate budget %s: %w", endpoint, err)
	}
	if !admitted {
		return fmt.Errorf("%w: %s", core.ErrBudgetExhausted, endpoint)
	}

	err = send(ctx)
	if !core.IsRateLimitError(err) {
		return err
	}
	return g.retry(ctx, endpoint, class, send, err)
}

// retry is the raw path: after a remote rate limit the budget is forced over its
// ceiling, so send is called directly instead of through Gate, which would only
// block for the whole cool-down again.
func (g *Governor) retry(ctx context.Context, endpoint string, class core.EndpointClass, send SendFunc, err error) error {
	offset := 0
	if class == core.ClassPrivate {
		offset = 1
	}

	for attempt := 1; ; attempt++ {
		g.metrics.remoteLimits.Add(1)
		g.OnRemoteRateLimit(endpoint)

		if !g.IsRetryable(endpoint) {
			g.logger.Warn().
				Str("endpoint", endpoint).
				Msg("remote rate limit on non-retryable endpoint")
			return err
		}
		if attempt >= g.maxAttempts {
			g.metrics.retryExhausted.Add(1)
			g.logger.Warn().
				Str("endpoint", endpoint).
				Int("attempts", attempt).
				Msg("remote rate limit, giving up")
			return err
		}

		delay := g.backoffDelay(attempt - 1 + offset)
		g.logger.Warn().
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("remote rate limit, retrying")
		if sleepErr := g.clock.Sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}

		g.OnRemoteRateLimit(endpoint)
		g.metrics.retries.Add(1)
		err = send(ctx)
		if !core.IsRateLimitError(err) {
			return err
		}
	}
}

func (g *Governor) backoffDelay(exp int) time.Duration {
	return g.backoff * time.Duration(1<<exp)
}
