package core

import (
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Params holds call arguments before they are form-encoded.
type Params map[string]any

// Request is a single API call ready for the transport.
type Request struct {
	Endpoint string            `json:"endpoint"`
	Class    EndpointClass     `json:"class"`
	Params   Params            `json:"params,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	CacheKey string            `json:"cache_key,omitempty"`
	CacheTTL time.Duration     `json:"cache_ttl,omitempty"`
}

// NewRequest creates a request for a classified endpoint.
func NewRequest(endpoint string, class EndpointClass) *Request {
	return &Request{
		Endpoint: endpoint,
		Class:    class,
		Params:   make(Params),
		Headers:  make(map[string]string),
	}
}

func (r *Request) SetParam(key string, value any) *Request {
	if r.Params == nil {
		r.Params = make(Params)
	}
	r.Params[key] = value
	return r
}

func (r *Request) SetParams(params Params) *Request {
	if r.Params == nil {
		r.Params = make(Params)
	}
	maps.Copy(r.Params, params)
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetCache(key string, ttl time.Duration) *Request {
	r.CacheKey = key
	r.CacheTTL = ttl
	return r
}

// IsPrivate reports whether the request must be signed.
func (r *Request) IsPrivate() bool {
	return r.Class == ClassPrivate
}

// Form encodes the params as form values.
// Slices are joined with commas, which is how Kraken takes lists of pairs or ids.
func (r *Request) Form() url.Values {
	form := make(url.Values, len(r.Params))
	for k, v := range r.Params {
		form.Set(k, FormatParam(v))
	}
	return form
}

// FormatParam renders a single parameter value.
func FormatParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []string:
		return strings.Join(val, ",")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
