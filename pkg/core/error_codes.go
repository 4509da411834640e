package core

import (
	"errors"
	"strings"
)

// ErrorCode is an error message as returned in the "error" list of a Kraken response.
// Messages have the form "<severity><category>:<message>[:<detail>]".
type ErrorCode string

// Known Kraken error messages.
const (
	ErrCodeRateLimit        ErrorCode = "EAPI:Rate limit exceeded"
	ErrCodeOrderRateLimit   ErrorCode = "EOrder:Rate limit exceeded"
	ErrCodeInvalidNonce     ErrorCode = "EAPI:Invalid nonce"
	ErrCodeInvalidKey       ErrorCode = "EAPI:Invalid key"
	ErrCodeInvalidSignature ErrorCode = "EAPI:Invalid signature"
	ErrCodeBadRequest       ErrorCode = "EAPI:Bad request"
	ErrCodePermissionDenied ErrorCode = "EGeneral:Permission denied"
	ErrCodeInvalidArguments ErrorCode = "EGeneral:Invalid arguments"
	ErrCodeUnknownMethod    ErrorCode = "EGeneral:Unknown method"
	ErrCodeUnknownAssetPair ErrorCode = "EQuery:Unknown asset pair"
	ErrCodeUnknownAsset     ErrorCode = "EQuery:Unknown asset"
	ErrCodeUnavailable      ErrorCode = "EService:Unavailable"
	ErrCodeBusy             ErrorCode = "EService:Busy"
	ErrCodeInternal         ErrorCode = "EGeneral:Internal error"
)

// ErrorTypeFor classifies a single Kraken error message.
func ErrorTypeFor(code ErrorCode) ErrorType {
	msg := string(code)
	switch {
	case strings.HasSuffix(msg, ":Rate limit exceeded"):
		return ErrorTypeRateLimit
	case code == ErrCodeInvalidNonce:
		return ErrorTypeInvalidNonce
	case code == ErrCodePermissionDenied:
		return ErrorTypePermissionDenied
	case strings.HasPrefix(msg, string(ErrCodeInvalidArguments)),
		strings.HasPrefix(msg, "EQuery:"),
		code == ErrCodeBadRequest:
		return ErrorTypeArgumentUsage
	case code == ErrCodeInvalidKey, code == ErrCodeInvalidSignature:
		return ErrorTypeAuthentication
	case strings.HasPrefix(msg, "EService:"), code == ErrCodeInternal:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// ErrorTypeForMessages classifies an error list by its first recognised message.
func ErrorTypeForMessages(messages []string) ErrorType {
	for _, m := range messages {
		if t := ErrorTypeFor(ErrorCode(m)); t != ErrorTypeUnknown {
			return t
		}
	}
	return ErrorTypeUnknown
}

// IsErrorCode checks if the error carries the specified Kraken error message.
func IsErrorCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		for _, m := range apiErr.Messages {
			if ErrorCode(m) == code {
				return true
			}
		}
		return ErrorCode(apiErr.Code) == code
	}
	return false
}
