package caplena

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"
)

// Reserved protocol headers. The requestor always overwrites these; callers
// can never spoof them through the per-request header map.
const (
	HeaderUserAgent  = "User-Agent"
	HeaderAPIKey     = "Caplena-API-Key"
	HeaderAPIVersion = "Caplena-API-Version"
)

const clientVersion = "0.3.0"

// Requestor builds absolute URIs and protocol headers and performs verb
// calls against a Transport. It holds no mutable state after construction
// and is safe to share across controllers.
type Requestor struct {
	transport  Transport
	logger     Logger
	identifier string
}

// NewRequestor creates a requestor over the given transport. The identifier
// is embedded in the User-Agent header; an empty identifier uses the library
// default.
func NewRequestor(transport Transport, logger Logger, identifier string) *Requestor {
	if logger == nil {
		logger = NoopLogger{}
	}

	if identifier == "" {
		identifier = "caplena-go"
	}

	return &Requestor{
		transport:  transport,
		logger:     logger,
		identifier: identifier,
	}
}

// UserAgent returns the identifying user-agent string sent with every
// request.
func (r *Requestor) UserAgent() string {
	return fmt.Sprintf("%s/%s (%s %s) go/%s",
		r.identifier, clientVersion, runtime.GOOS, runtime.GOARCH, strings.TrimPrefix(runtime.Version(), "go"))
}

// BuildURI assembles an absolute URI from a base, a path with named
// {placeholder} segments, and optional query parameters. Path parameter
// values and query pairs are percent-encoded. A placeholder without a
// supplied value fails with MalformedURIError.
func (r *Requestor) BuildURI(baseURI, path string, pathParams map[string]string, queryParams url.Values) (string, error) {
	substituted, err := substitutePath(path, pathParams)
	if err != nil {
		return "", err
	}

	uri := strings.TrimSuffix(baseURI, "/") + "/" + strings.TrimPrefix(substituted, "/")

	if len(queryParams) > 0 {
		uri += "?" + queryParams.Encode()
	}

	return uri, nil
}

func substitutePath(path string, pathParams map[string]string) (string, error) {
	var builder strings.Builder

	rest := path

	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			builder.WriteString(rest)

			break
		}

		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			builder.WriteString(rest)

			break
		}

		name := rest[start+1 : start+end]

		value, ok := pathParams[name]
		if !ok {
			return "", &MalformedURIError{Path: path, Placeholder: name}
		}

		builder.WriteString(rest[:start])
		builder.WriteString(url.PathEscape(value))
		rest = rest[start+end+1:]
	}

	return builder.String(), nil
}

// BuildHeaders assembles the final request headers. Caller-supplied headers
// are copied first and Accept defaults to application/json; then the three
// reserved protocol headers are force-overwritten regardless of caller
// input. The version header is omitted entirely for VersionDefault.
func (r *Requestor) BuildHeaders(headers http.Header, apiKey string, apiVersion APIVersion) http.Header {
	out := make(http.Header, len(headers)+4)

	for name, values := range headers {
		for _, value := range values {
			out.Add(name, value)
		}
	}

	if out.Get("Accept") == "" {
		out.Set("Accept", "application/json")
	}

	out.Set(HeaderUserAgent, r.UserAgent())

	if apiKey != "" {
		out.Set(HeaderAPIKey, apiKey)
	} else {
		out.Del(HeaderAPIKey)
	}

	if apiVersion != VersionDefault {
		out.Set(HeaderAPIVersion, apiVersion.String())
	} else {
		out.Del(HeaderAPIVersion)
	}

	return out
}

// RequestParams carries everything a single verb call needs beyond the
// method itself.
type RequestParams struct {
	BaseURI     string
	Path        string
	PathParams  map[string]string
	QueryParams url.Values
	// JSON is marshaled into the request body for POST/PUT/PATCH calls.
	JSON interface{}
	// Headers are caller-supplied extras; reserved headers are overwritten.
	Headers    http.Header
	APIKey     string
	APIVersion APIVersion
	Timeout    time.Duration
	Retry      *RetryPolicy
}

// Request builds and performs one HTTP exchange, returning the raw response
// envelope without any status classification.
func (r *Requestor) Request(ctx context.Context, method Method, params *RequestParams) (*Response, error) {
	uri, err := r.BuildURI(params.BaseURI, params.Path, params.PathParams, params.QueryParams)
	if err != nil {
		return nil, err
	}

	headers := r.BuildHeaders(params.Headers, params.APIKey, params.APIVersion)

	var body []byte

	if params.JSON != nil && allowsBody(method) {
		body, err = json.Marshal(params.JSON)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		headers.Set("Content-Type", "application/json")
	}

	r.logger.Debug("API request", map[string]interface{}{
		"method": string(method),
		"uri":    uri,
	})

	resp, err := r.transport.Request(ctx, &TransportRequest{
		URI:     uri,
		Method:  method,
		Headers: headers,
		Body:    body,
		Timeout: params.Timeout,
		Retry:   params.Retry,
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, params.Path, err)
	}

	r.logger.Debug("API response", map[string]interface{}{
		"method":      string(method),
		"uri":         uri,
		"status_code": resp.StatusCode,
	})

	return resp, nil
}

// Get performs a GET request.
func (r *Requestor) Get(ctx context.Context, params *RequestParams) (*Response, error) {
	return r.Request(ctx, MethodGet, params)
}

// Post performs a POST request.
func (r *Requestor) Post(ctx context.Context, params *RequestParams) (*Response, error) {
	return r.Request(ctx, MethodPost, params)
}

// Put performs a PUT request.
func (r *Requestor) Put(ctx context.Context, params *RequestParams) (*Response, error) {
	return r.Request(ctx, MethodPut, params)
}

// Patch performs a PATCH request.
func (r *Requestor) Patch(ctx context.Context, params *RequestParams) (*Response, error) {
	return r.Request(ctx, MethodPatch, params)
}

// Delete performs a DELETE request.
func (r *Requestor) Delete(ctx context.Context, params *RequestParams) (*Response, error) {
	return r.Request(ctx, MethodDelete, params)
}

func allowsBody(method Method) bool {
	return method == MethodPost || method == MethodPut || method == MethodPatch
}
