// Package http implements the transport contract of pkg/caplena on top of
// hashicorp/go-retryablehttp.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/caplena/caplena-go/internal/constants"
	"github.com/caplena/caplena-go/pkg/caplena"
)

// Client performs the actual network exchange for the dispatcher. The retry
// loop lives entirely here, configured per call from the threaded retry
// policy; the dispatcher above never retries on its own.
type Client struct {
	httpClient   *http.Client
	logger       caplena.Logger
	debug        bool
	timeout      time.Duration
	interceptors *caplena.InterceptorChain
}

// Option configures the transport.
type Option func(*Client)

// WithLogger sets the logger used for debug output.
func WithLogger(logger caplena.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response debug logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithTimeout sets the default timeout applied when a request carries none.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying net/http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithInterceptors installs an interceptor chain applied around every
// transport call.
func WithInterceptors(chain *caplena.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a new transport.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{},
		logger:     caplena.NoopLogger{},
		timeout:    constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Request implements caplena.Transport. Network-level failures surface as
// errors; every completed HTTP exchange, whatever its status code, resolves
// to a response envelope.
func (c *Client) Request(ctx context.Context, req *caplena.TransportRequest) (*caplena.Response, error) {
	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := c.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	retryClient := c.newRetryClient(req.Retry)

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.debug {
		c.logger.Debug("HTTP request", map[string]interface{}{
			"method": string(req.Method),
			"uri":    req.URI,
		})
	}

	resp, err := retryClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URI, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug {
		c.logger.Debug("HTTP response", map[string]interface{}{
			"method":      string(req.Method),
			"uri":         req.URI,
			"status_code": resp.StatusCode,
		})
	}

	headers := make(http.Header, len(resp.Header))
	for name, values := range resp.Header {
		headers[name] = values
	}

	envelope := caplena.NewResponse(resp.StatusCode, reasonPhrase(resp), string(body), headers)

	err = c.interceptors.ExecuteResponseInterceptors(ctx, req, envelope)
	if err != nil {
		return nil, err
	}

	return envelope, nil
}

func (c *Client) buildRequest(ctx context.Context, req *caplena.TransportRequest) (*retryablehttp.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, string(req.Method), req.URI, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for name, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(name, value)
		}
	}

	return httpReq, nil
}

// newRetryClient builds a retryablehttp client for one call, configured from
// the threaded policy. A nil policy disables retrying beyond the first
// attempt.
func (c *Client) newRetryClient(policy *caplena.RetryPolicy) *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = c.httpClient
	retryClient.Logger = nil
	// Exhausted retries must still surface the final response envelope, not
	// a fabricated "giving up" error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if policy == nil {
		retryClient.RetryMax = 0
		retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}

			return false, nil
		}

		return retryClient
	}

	retryClient.RetryMax = policy.MaxRetries
	if retryClient.RetryMax == 0 {
		retryClient.RetryMax = constants.DefaultRetryMax
	}

	retryClient.RetryWaitMin = policy.WaitMin
	if retryClient.RetryWaitMin == 0 {
		retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	retryClient.RetryWaitMax = policy.WaitMax
	if retryClient.RetryWaitMax == 0 {
		retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	}

	if len(policy.RetryableStatuses) > 0 {
		retryable := make(map[int]struct{}, len(policy.RetryableStatuses))
		for _, status := range policy.RetryableStatuses {
			retryable[status] = struct{}{}
		}

		retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}

			if err != nil {
				return true, nil
			}

			_, ok := retryable[resp.StatusCode]

			return ok, nil
		}
	}

	return retryClient
}

// reasonPhrase extracts the reason phrase from the status line, falling back
// to the standard text for the code.
func reasonPhrase(resp *http.Response) string {
	parts := strings.SplitN(resp.Status, " ", 2)
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return http.StatusText(resp.StatusCode)
}
