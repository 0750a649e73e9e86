// Package caplenaclient provides the main entry point for creating Caplena
// API clients.
package caplenaclient

import (
	"fmt"
	"strings"

	"github.com/caplena/caplena-go/internal/client"
	"github.com/caplena/caplena-go/pkg/caplena"
)

// New creates a new Caplena API client.
func New(config *caplena.Config) (caplena.Client, error) {
	if config == nil {
		return nil, caplena.ErrConfigRequired
	}

	if config.BaseURI != "" {
		baseURI := strings.TrimSuffix(config.BaseURI, "/")
		if !strings.HasPrefix(baseURI, "http://") && !strings.HasPrefix(baseURI, "https://") {
			baseURI = "https://" + baseURI
		}

		config.BaseURI = baseURI
	}

	apiClient, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return apiClient, nil
}

// NewWithAPIKey creates a new client against the production API with just an
// API key.
func NewWithAPIKey(apiKey string) (caplena.Client, error) {
	return New(&caplena.Config{
		APIKey: apiKey,
	})
}

// NewLocal creates a new client against a locally running API instance.
func NewLocal(apiKey string) (caplena.Client, error) {
	return New(&caplena.Config{
		APIKey:  apiKey,
		BaseURI: caplena.BaseURILocal,
	})
}
