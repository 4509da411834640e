package kraken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"

	"krakenex/pkg/core"
)

const (
	// APIVersion is the REST API version prefix.
	APIVersion = "0"

	HeaderAPIKey  = "API-Key"
	HeaderAPISign = "API-Sign"
)

// nonceEpoch keeps nonces well inside int64 milliseconds and below values
// produced by clients counting from the unix epoch.
var nonceEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Path returns the URL path of an endpoint, e.g. /0/private/Balance.
func Path(class core.EndpointClass, endpoint string) string {
	return "/" + APIVersion + "/" + class.String() + "/" + endpoint
}

// DecodeSecret decodes a base64 API secret.
func DecodeSecret(secret string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("decode api secret: %w", err)
	}
	return key, nil
}

// Sign computes the API-Sign header:
// base64(HMAC-SHA512(secret, path + SHA256(nonce + postData))).
func Sign(path, nonce, postData string, secret []byte) string {
	digest := sha256.Sum256([]byte(nonce + postData))
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// NonceSource issues strictly increasing nonces: milliseconds since
// 2020-01-01 UTC, bumped by one when two requests share a millisecond.
type NonceSource struct {
	last atomic.Int64
	now  func() time.Time
}

func NewNonceSource() *NonceSource {
	return &NonceSource{now: time.Now}
}

// Next returns a nonce greater than every nonce returned before.
func (n *NonceSource) Next() int64 {
	for {
		last := n.last.Load()
		next := n.now().Sub(nonceEpoch).Milliseconds()
		if next <= last {
			next = last + 1
		}
		if n.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

type envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// ParseResponse decodes the {"error": [...], "result": ...} envelope.
// Warning messages (prefixed "W") do not fail the call.
func ParseResponse(endpoint string, statusCode int, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		errType := core.ErrorTypeMalformedResponse
		if statusCode >= http.StatusInternalServerError {
			errType = core.ErrorTypeServerError
		}
		return nil, core.NewTransportError(endpoint, errType, statusCode, fmt.Errorf("decode response: %w", err))
	}

	if errs := errorMessages(env.Error); len(errs) > 0 {
		return nil, core.NewAPIError(endpoint, core.ErrorTypeForMessages(errs), statusCode, errs...)
	}

	if statusCode >= http.StatusBadRequest {
		return nil, core.NewAPIError(endpoint, mapStatusCode(statusCode), statusCode, http.StatusText(statusCode))
	}

	if len(env.Result) == 0 {
		return nil, core.NewTransportError(endpoint, core.ErrorTypeMalformedResponse, statusCode, fmt.Errorf("response has no result"))
	}
	return env.Result, nil
}

func errorMessages(messages []string) []string {
	var errs []string
	for _, m := range messages {
		if !strings.HasPrefix(m, "W") {
			errs = append(errs, m)
		}
	}
	return errs
}

func mapStatusCode(statusCode int) core.ErrorType {
	switch {
	case statusCode >= 500:
		return core.ErrorTypeServerError
	case statusCode == http.StatusTooManyRequests:
		return core.ErrorTypeRateLimit
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return core.ErrorTypeAuthentication
	case statusCode == http.StatusBadRequest:
		return core.ErrorTypeArgumentUsage
	default:
		return core.ErrorTypeUnknown
	}
}
