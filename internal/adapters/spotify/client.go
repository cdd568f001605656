// Package spotify provides the catalog adapter: a cached client-credentials
// token source and an emotion-driven track search.
package spotify

import (
	"net/http"
	"strings"

	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
	"github.com/ewilliams-labs/moodmelody/internal/observability"
)

const (
	defaultBaseURL     = "https://api.spotify.com/v1"
	defaultSearchLimit = 5
)

// Client is an HTTP client for the Spotify Web API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     ports.TokenProvider
	limit      int
	metrics    *observability.Metrics
}

// compile-time interface assertion
var _ ports.CatalogSearcher = (*Client)(nil)

// invalidator is implemented by token providers that can drop a rejected
// credential.
type invalidator interface {
	Invalidate()
}

// NewClient constructs a new Spotify client. A nil httpClient uses
// http.DefaultClient; an empty baseURL targets the public API.
func NewClient(httpClient *http.Client, baseURL string, tokens ports.TokenProvider) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		tokens:     tokens,
		limit:      defaultSearchLimit,
	}
}

// WithMetrics attaches search outcome counters.
func (c *Client) WithMetrics(m *observability.Metrics) *Client {
	c.metrics = m
	return c
}
