package caplena

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Method identifies an HTTP verb supported by the dispatcher.
type Method string

// Supported HTTP methods.
const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// Well-known API base URIs.
const (
	BaseURIProduction = "https://api.caplena.com/v2"
	BaseURILocal      = "http://localhost:8000/v2"
)

// APIVersion pins requests to a dated revision of the Caplena API. The zero
// value (VersionDefault) sends no version header at all.
type APIVersion int

// Known API versions.
const (
	VersionDefault APIVersion = iota
	Version20211201
)

// versionTokens maps versions to their internal token form. The wire format
// is derived by dropping the VER_ prefix and replacing underscores with
// hyphens, e.g. VER_2021_12_01 -> "2021-12-01".
var versionTokens = map[APIVersion]string{
	Version20211201: "VER_2021_12_01",
}

// String returns the wire representation of the version, or an empty string
// for VersionDefault.
func (v APIVersion) String() string {
	token, ok := versionTokens[v]
	if !ok {
		return ""
	}

	return strings.ReplaceAll(strings.TrimPrefix(token, "VER_"), "_", "-")
}

// RetryPolicy configures how the transport retries a single logical request.
// The core only threads the policy through to the transport; the retry loop
// itself lives entirely behind the Transport interface.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt. Zero
	// means the transport default applies; to disable retrying altogether,
	// thread a nil *RetryPolicy instead of a zero MaxRetries.
	MaxRetries int
	// WaitMin is the minimum backoff between attempts.
	WaitMin time.Duration
	// WaitMax is the maximum backoff between attempts.
	WaitMax time.Duration
	// RetryableStatuses lists response status codes that warrant a retry.
	// When empty the transport falls back to its default set (429 and 5xx).
	RetryableStatuses []int
}

// TransportRequest is the uniform request handed to a Transport.
type TransportRequest struct {
	URI     string
	Method  Method
	Headers http.Header
	// Body is the raw JSON payload, nil for body-less requests.
	Body []byte
	// Timeout bounds the whole exchange including retries. Zero means the
	// transport default applies.
	Timeout time.Duration
	// Retry is optional; nil disables retrying beyond the first attempt.
	Retry *RetryPolicy
	// Metadata carries interceptor-scoped state across the exchange. It never
	// goes over the wire.
	Metadata map[string]interface{}
}

// Transport performs the actual network exchange. Implementations must
// surface network-level failures as errors, never as fabricated response
// envelopes, and must be safe for concurrent use.
type Transport interface {
	Request(ctx context.Context, req *TransportRequest) (*Response, error)
}

// Response is the immutable envelope every transport call resolves to.
type Response struct {
	StatusCode int
	Reason     string
	// Text is the raw response body, empty when the response carried none.
	Text    string
	Headers http.Header

	parseOnce sync.Once
	parsed    map[string]interface{}
	parseErr  error
}

// NewResponse constructs a response envelope. Mainly useful for transports
// and tests; dispatcher users receive envelopes ready-made.
func NewResponse(statusCode int, reason, text string, headers http.Header) *Response {
	return &Response{
		StatusCode: statusCode,
		Reason:     reason,
		Text:       text,
		Headers:    headers,
	}
}

// JSON returns the decoded response body. Decoding happens at most once, on
// first access; the result (or the decode failure) is memoized. An empty
// body yields (nil, nil).
func (r *Response) JSON() (map[string]interface{}, error) {
	r.parseOnce.Do(func() {
		if r.Text == "" {
			return
		}

		var body map[string]interface{}

		err := json.Unmarshal([]byte(r.Text), &body)
		if err != nil {
			r.parseErr = err

			return
		}

		r.parsed = body
	})

	return r.parsed, r.parseErr
}

// String renders a short diagnostic form of the envelope.
func (r *Response) String() string {
	text := r.Text
	if len(text) > 50 {
		text = text[:50] + "..."
	}

	return fmt.Sprintf("Response(status_code=%d, reason=%q, text=%q)", r.StatusCode, r.Reason, text)
}
