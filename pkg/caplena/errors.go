package caplena

import (
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrNoMoreItems     = errors.New("no more items")
	ErrUnknownField    = errors.New("field is not declared in the schema")
	ErrFieldNotSet     = errors.New("field has not been set")
	ErrConfigRequired  = errors.New("config is required")
	ErrAPIKeyRequired  = errors.New("API key is required")
	ErrNilFetcher      = errors.New("page fetcher must not be nil")
	ErrElemSchemaUnset = errors.New("object field declared without an element schema")
)

// MalformedURIError reports a path placeholder that could not be resolved
// while building a request URI.
type MalformedURIError struct {
	Path        string
	Placeholder string
}

// Error implements the error interface.
func (e *MalformedURIError) Error() string {
	return fmt.Sprintf("malformed URI for path %q: no value supplied for placeholder {%s}", e.Path, e.Placeholder)
}

// APIError reports a response the dispatcher refused to accept: a status
// code outside the allowed set, or a missing/unparseable body where a JSON
// body was required. It carries the full envelope detail so callers can
// decide whether to retry, surface, or translate the failure.
type APIError struct {
	StatusCode int
	Reason     string
	// Body is the raw response text, possibly empty.
	Body string
	// Parsed is the decoded body when it was valid JSON, nil otherwise.
	Parsed map[string]interface{}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	detail := e.Body
	if len(detail) > 100 {
		detail = detail[:100] + "..."
	}

	if detail == "" {
		detail = "<empty body>"
	}

	return fmt.Sprintf("API error (status %d %s): %s", e.StatusCode, e.Reason, detail)
}

// newAPIError builds an APIError from a response envelope, attaching the
// parsed body when one is available.
func newAPIError(resp *Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Reason:     resp.Reason,
		Body:       resp.Text,
	}

	parsed, err := resp.JSON()
	if err == nil {
		apiErr.Parsed = parsed
	}

	return apiErr
}

// ImmutableFieldError reports a write or delete of a declared field that is
// not externally mutable.
type ImmutableFieldError struct {
	Field string
}

// Error implements the error interface.
func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("%s. HINT: You cannot modify this attribute, as it is immutable.", e.Field)
}

// SchemaViolationError reports invalid input at materialization time, such
// as a required field that is absent or a nested field of the wrong shape.
type SchemaViolationError struct {
	Schema string
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation for %s.%s: %s", e.Schema, e.Field, e.Reason)
}

// DetachedObjectError reports access to the controller of an object that has
// none attached.
type DetachedObjectError struct {
	Schema string
}

// Error implements the error interface.
func (e *DetachedObjectError) Error() string {
	return fmt.Sprintf("cannot access the non-existing controller for this %s object. "+
		"HINT: This object either does not have a controller attached, or you forgot to manually "+
		"set the controller after initializing it (object.SetController(controller)).", e.Schema)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden reports whether err is an APIError with status 403.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsRateLimited reports whether err is an APIError with status 429.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

func hasStatus(err error, status int) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}

	return false
}
