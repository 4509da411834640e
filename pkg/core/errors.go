package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of an API error.
type ErrorType int

// Error type constants categorize errors for proper handling and retry logic.
const (
	// ErrorTypeUnknown indicates an unclassified error returned by the exchange.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates the exchange rejected the call for exceeding its rate limit.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates an invalid key or signature.
	ErrorTypeAuthentication
	// ErrorTypeArgumentUsage indicates invalid request arguments.
	ErrorTypeArgumentUsage
	// ErrorTypePermissionDenied indicates the key lacks the permission for the endpoint.
	ErrorTypePermissionDenied
	// ErrorTypeInvalidNonce indicates the nonce was not strictly increasing.
	ErrorTypeInvalidNonce
	// ErrorTypeServerError indicates a server-side error.
	ErrorTypeServerError
	// ErrorTypeMalformedResponse indicates a response body that could not be decoded.
	ErrorTypeMalformedResponse
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"ARGUMENT_USAGE",
		"PERMISSION_DENIED",
		"INVALID_NONCE",
		"SERVER_ERROR",
		"MALFORMED_RESPONSE",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrUnknownMethod is returned for an endpoint name that is neither public nor private.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrNoCredentials is returned when a private endpoint is called without API credentials.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrBudgetExhausted is returned by non-blocking calls the rate budget cannot admit.
	ErrBudgetExhausted = errors.New("rate budget exhausted")
	// ErrBudgetStalled is returned when a budget is exceeded and never decays.
	ErrBudgetStalled = errors.New("rate budget exceeded with no decay")
	// ErrInvalidArgument is returned when a call argument is rejected before dispatch.
	ErrInvalidArgument = errors.New("invalid argument")
)

// APIError represents a structured error returned from the exchange or the transport.
type APIError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code from the response, 0 if none was received.
	StatusCode int `json:"status_code"`
	// Endpoint is the API method that failed.
	Endpoint string `json:"endpoint"`
	// Code is the first exchange error message, e.g. "EAPI:Invalid nonce".
	Code string `json:"code,omitempty"`
	// Messages is the raw error list of the response envelope.
	Messages []string `json:"messages,omitempty"`
	// Err is the underlying transport error, if any.
	Err error `json:"-"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] %s (%d): %s", e.Endpoint, e.Type, e.StatusCode, msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Endpoint, e.Type, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// WithCode returns the APIError with the specified error code.
func (e *APIError) WithCode(code ErrorCode) *APIError {
	e.Code = string(code)
	return e
}

// NewAPIError creates an APIError from the exchange's error message list.
// The first message becomes the error code.
func NewAPIError(endpoint string, errorType ErrorType, statusCode int, messages ...string) *APIError {
	e := &APIError{
		Type:       errorType,
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Messages:   messages,
		Timestamp:  time.Now(),
	}
	if len(messages) > 0 {
		e.Code = messages[0]
	}
	return e
}

// NewTransportError wraps a transport failure that produced no exchange message.
func NewTransportError(endpoint string, errorType ErrorType, statusCode int, err error) *APIError {
	return &APIError{
		Type:       errorType,
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Err:        err,
		Timestamp:  time.Now(),
	}
}

func isType(err error, t ErrorType) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsNetworkError returns true if the error is a network connectivity issue.
func IsNetworkError(err error) bool {
	return isType(err, ErrorTypeNetwork)
}

// IsTimeoutError returns true if the error is a timeout.
func IsTimeoutError(err error) bool {
	return isType(err, ErrorTypeTimeout)
}

// IsRateLimitError returns true if the exchange reported a rate limit violation.
// These are the only errors the rate governor retries.
func IsRateLimitError(err error) bool {
	return isType(err, ErrorTypeRateLimit)
}

// IsServerError reports an exchange side failure (5xx or EService).
func IsServerError(err error) bool {
	return isType(err, ErrorTypeServerError)
}

// IsAuthenticationError returns true if the error is an authentication failure.
func IsAuthenticationError(err error) bool {
	return isType(err, ErrorTypeAuthentication)
}

// IsArgumentUsageError returns true if the exchange rejected the call arguments.
func IsArgumentUsageError(err error) bool {
	return isType(err, ErrorTypeArgumentUsage)
}

// IsPermissionDeniedError returns true if the key lacks permission for the endpoint.
func IsPermissionDeniedError(err error) bool {
	return isType(err, ErrorTypePermissionDenied)
}

// IsInvalidNonceError returns true if the exchange rejected the request nonce.
// This usually means one key pair is shared by concurrent clients.
func IsInvalidNonceError(err error) bool {
	return isType(err, ErrorTypeInvalidNonce)
}

// IsTerminalError returns true if retrying the call cannot succeed without caller action.
func IsTerminalError(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeArgumentUsage ||
			e.Type == ErrorTypePermissionDenied ||
			e.Type == ErrorTypeAuthentication ||
			e.Type == ErrorTypeInvalidNonce
	}
	return errors.Is(err, ErrUnknownMethod) || errors.Is(err, ErrNoCredentials)
}
