package caplena

import (
	"time"
)

// Config holds everything needed to talk to the Caplena API. After
// construction of a client the configuration is treated as read-only.
type Config struct {
	// APIKey authenticates every request via the Caplena-API-Key header.
	APIKey string
	// BaseURI defaults to BaseURIProduction.
	BaseURI string
	// APIVersion pins requests to a dated API revision; VersionDefault sends
	// no version header.
	APIVersion APIVersion
	// Timeout is the default per-call timeout threaded to the transport.
	// Zero leaves the transport default in place.
	Timeout time.Duration
	// Retry is the default retry policy threaded to the transport; nil
	// leaves the client default in place (3 retries with backoff).
	Retry *RetryPolicy
	// UserAgent overrides the identifier part of the User-Agent header.
	UserAgent string
	// Logger receives request/response debug lines; nil discards them.
	Logger Logger
	// Debug enables verbose transport logging when a Logger is set.
	Debug bool
	// Transport replaces the default HTTP transport. Mainly useful for
	// tests and custom wire-level behavior.
	Transport Transport
	// Interceptors is an optional chain run around every call of the default
	// transport. Ignored when Transport is set.
	Interceptors *InterceptorChain
}

// Client is the top-level entry point: an accessor per endpoint group plus
// the shared dispatcher underneath for anything resource code needs directly.
type Client interface {
	Projects() *ProjectsController
	Controller() *BaseController
}
