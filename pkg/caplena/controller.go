package caplena

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Controller is the dispatcher back-reference a materialized Object keeps.
// It exposes the verb calls and materialization helpers resource-specific
// endpoint code builds on. *BaseController is the canonical implementation.
type Controller interface {
	Get(ctx context.Context, path string, opts *CallOptions) (*Response, error)
	Post(ctx context.Context, path string, opts *CallOptions) (*Response, error)
	Put(ctx context.Context, path string, opts *CallOptions) (*Response, error)
	Patch(ctx context.Context, path string, opts *CallOptions) (*Response, error)
	Delete(ctx context.Context, path string, opts *CallOptions) (*Response, error)

	BuildResponse(resp *Response, schema *Schema) (*Object, error)
	BuildIterator(fetcher PageFetcher, limit int, schema *Schema) *Iterator
}

// CallOptions are the per-call knobs of a dispatcher verb call. All fields
// are optional.
type CallOptions struct {
	PathParams  map[string]string
	QueryParams url.Values
	// JSON is the request payload; only honored by POST/PUT/PATCH.
	JSON interface{}
	// Timeout overrides the configured per-call timeout.
	Timeout time.Duration
	// Retry overrides the configured retry policy.
	Retry *RetryPolicy
	// AllowedCodes replaces the verb's default allowed status-code set.
	AllowedCodes []int
}

// Default allowed status codes per verb. Kept as switch-computed values
// rather than shared mutable collections.
func defaultAllowedCodes(method Method) []int {
	switch method {
	case MethodPost:
		return []int{http.StatusCreated}
	case MethodDelete:
		return []int{http.StatusNoContent}
	default:
		return []int{http.StatusOK}
	}
}

// BaseController is the resource-agnostic request dispatcher. It owns a
// requestor plus read-only configuration and classifies every response
// against an allowed status-code set, translating rejects into APIError.
//
// A single controller may safely back many objects and iterators at once;
// it holds no mutable state beyond its construction-time configuration,
// provided the underlying transport is itself safe for concurrent use.
type BaseController struct {
	config    *Config
	requestor *Requestor
}

// NewBaseController creates a dispatcher bound to a configuration and a
// requestor.
func NewBaseController(config *Config, requestor *Requestor) *BaseController {
	return &BaseController{
		config:    config,
		requestor: requestor,
	}
}

// Config returns the controller's read-only configuration.
func (c *BaseController) Config() *Config {
	return c.config
}

// Requestor returns the underlying requestor.
func (c *BaseController) Requestor() *Requestor {
	return c.requestor
}

// Get performs a GET call; the default allowed status-code set is {200}.
func (c *BaseController) Get(ctx context.Context, path string, opts *CallOptions) (*Response, error) {
	return c.call(ctx, MethodGet, path, opts)
}

// Post performs a POST call; the default allowed status-code set is {201}.
func (c *BaseController) Post(ctx context.Context, path string, opts *CallOptions) (*Response, error) {
	return c.call(ctx, MethodPost, path, opts)
}

// Put performs a PUT call; the default allowed status-code set is {200}.
func (c *BaseController) Put(ctx context.Context, path string, opts *CallOptions) (*Response, error) {
	return c.call(ctx, MethodPut, path, opts)
}

// Patch performs a PATCH call; the default allowed status-code set is {200}.
func (c *BaseController) Patch(ctx context.Context, path string, opts *CallOptions) (*Response, error) {
	return c.call(ctx, MethodPatch, path, opts)
}

// Delete performs a DELETE call; the default allowed status-code set is {204}.
func (c *BaseController) Delete(ctx context.Context, path string, opts *CallOptions) (*Response, error) {
	return c.call(ctx, MethodDelete, path, opts)
}

func (c *BaseController) call(ctx context.Context, method Method, path string, opts *CallOptions) (*Response, error) {
	if opts == nil {
		opts = &CallOptions{}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = c.config.Timeout
	}

	retry := opts.Retry
	if retry == nil {
		retry = c.config.Retry
	}

	resp, err := c.requestor.Request(ctx, method, &RequestParams{
		BaseURI:     c.config.BaseURI,
		Path:        path,
		PathParams:  opts.PathParams,
		QueryParams: opts.QueryParams,
		JSON:        opts.JSON,
		APIKey:      c.config.APIKey,
		APIVersion:  c.config.APIVersion,
		Timeout:     timeout,
		Retry:       retry,
	})
	if err != nil {
		return nil, err
	}

	allowed := opts.AllowedCodes
	if len(allowed) == 0 {
		allowed = defaultAllowedCodes(method)
	}

	for _, code := range allowed {
		if resp.StatusCode == code {
			return resp, nil
		}
	}

	return nil, newAPIError(resp)
}

// BuildResponse materializes one Object from a response body and attaches
// this controller to it. A missing or unparseable body on an otherwise
// accepted response is treated as an APIError, not a parse error: absence of
// a body where one was required is itself a broken contract.
func (c *BaseController) BuildResponse(resp *Response, schema *Schema) (*Object, error) {
	body, err := c.jsonOrError(resp)
	if err != nil {
		return nil, err
	}

	return BuildObj(schema, body, c)
}

// BuildIterator wraps a per-page fetch closure into a lazy Iterator over
// materialized objects. Each page body must carry a "results" array, a
// "next_url" presence marker, and a "count" total hint. A nil fetcher yields
// an iterator whose Next always fails with ErrNilFetcher.
func (c *BaseController) BuildIterator(fetcher PageFetcher, limit int, schema *Schema) *Iterator {
	if fetcher == nil {
		return newIterator(func(page int) ([]*Object, bool, int, error) {
			return nil, false, 0, ErrNilFetcher
		}, limit)
	}

	return newIterator(func(page int) ([]*Object, bool, int, error) {
		resp, err := fetcher(page)
		if err != nil {
			return nil, false, 0, err
		}

		body, err := c.jsonOrError(resp)
		if err != nil {
			return nil, false, 0, err
		}

		rawResults, ok := body["results"].([]interface{})
		if !ok {
			return nil, false, 0, newAPIError(resp)
		}

		results := make([]*Object, 0, len(rawResults))

		for _, raw := range rawResults {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				return nil, false, 0, newAPIError(resp)
			}

			obj, err := BuildObj(schema, entry, c)
			if err != nil {
				return nil, false, 0, err
			}

			results = append(results, obj)
		}

		hasMore := body["next_url"] != nil

		count := 0
		if total, ok := body["count"].(float64); ok {
			count = int(total)
		}

		return results, hasMore, count, nil
	}, limit)
}

// jsonOrError returns the parsed response body, translating an absent or
// invalid body into an APIError carrying the full envelope.
func (c *BaseController) jsonOrError(resp *Response) (map[string]interface{}, error) {
	body, err := resp.JSON()
	if err != nil || body == nil {
		return nil, newAPIError(resp)
	}

	return body, nil
}
