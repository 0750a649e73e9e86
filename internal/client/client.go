// Package client wires the concrete Caplena client: transport, requestor,
// dispatcher, and the endpoint controllers on top.
package client

import (
	"github.com/caplena/caplena-go/internal/constants"
	internalhttp "github.com/caplena/caplena-go/internal/http"
	"github.com/caplena/caplena-go/pkg/caplena"
)

// Client implements the caplena.Client interface.
type Client struct {
	config     *caplena.Config
	controller *caplena.BaseController
	projects   *caplena.ProjectsController
}

// New creates a new Caplena API client from a validated configuration.
func New(config *caplena.Config) (*Client, error) {
	if config == nil {
		return nil, caplena.ErrConfigRequired
	}

	if config.APIKey == "" {
		return nil, caplena.ErrAPIKeyRequired
	}

	if config.BaseURI == "" {
		config.BaseURI = caplena.BaseURIProduction
	}

	if config.Timeout == 0 {
		config.Timeout = constants.DefaultHTTPTimeout
	}

	if config.Retry == nil {
		config.Retry = &caplena.RetryPolicy{
			MaxRetries: constants.DefaultRetryMax,
			WaitMin:    constants.DefaultRetryWaitMin,
			WaitMax:    constants.DefaultRetryWaitMax,
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = caplena.NoopLogger{}
	}

	transport := config.Transport
	if transport == nil {
		transport = internalhttp.NewClient(
			internalhttp.WithLogger(logger),
			internalhttp.WithDebug(config.Debug),
			internalhttp.WithTimeout(config.Timeout),
			internalhttp.WithInterceptors(config.Interceptors),
		)
	}

	requestor := caplena.NewRequestor(transport, logger, config.UserAgent)
	controller := caplena.NewBaseController(config, requestor)

	return &Client{
		config:     config,
		controller: controller,
		projects:   caplena.NewProjectsController(controller),
	}, nil
}

// Projects implements caplena.Client.Projects.
func (c *Client) Projects() *caplena.ProjectsController {
	return c.projects
}

// Controller implements caplena.Client.Controller.
func (c *Client) Controller() *caplena.BaseController {
	return c.controller
}
