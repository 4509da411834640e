package core

import (
	"context"
	"encoding/json"
)

// Transport sends one request to the exchange.
// Implementations sign private requests, decode the response envelope and
// return the raw "result" payload, or an *APIError describing the failure.
type Transport interface {
	// Send performs a single attempt. Retries are the caller's concern.
	Send(ctx context.Context, req *Request) (json.RawMessage, error)

	// HasCredentials reports whether private endpoints can be signed.
	HasCredentials() bool

	// Close releases the underlying connections.
	Close() error
}
