// Package client implements showdown.Comparer over the HTTP comparison endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mhpenta/showdown"
	"github.com/mhpenta/showdown/api"
)

// DefaultEndpoint is where a local showdown backend listens by default.
const DefaultEndpoint = "http://localhost:5000"

// maxBodySize caps how much of a response is read.
const maxBodySize = 32 << 20

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each request, keeping the client's transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets a structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client sends comparison requests to a showdown backend.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ showdown.Comparer = (*Client)(nil)

// New creates a Client for the backend at baseURL (DefaultEndpoint if empty).
// Without WithTimeout a hung backend keeps the request open until the
// transport gives up.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultEndpoint
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// Compare posts the request and maps the envelope to provider results.
// Transport errors, unreadable bodies and success=false envelopes are all
// returned as *showdown.RequestFailure.
func (c *Client) Compare(ctx context.Context, req *showdown.ComparisonRequest) ([]showdown.ProviderResult, error) {
	body, err := json.Marshal(api.NewCompareRequest(req))
	if err != nil {
		return nil, &showdown.RequestFailure{Err: fmt.Errorf("encoding request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+api.ComparePath, bytes.NewReader(body))
	if err != nil {
		return nil, &showdown.RequestFailure{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", req.ID())

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error("compare request failed",
			"request_id", req.ID(),
			"error", err.Error(),
		)
		return nil, &showdown.RequestFailure{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &showdown.RequestFailure{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	var envelope api.CompareResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &showdown.RequestFailure{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("invalid response (status %d): %w", resp.StatusCode, err),
		}
	}

	c.logger.Debug("compare response received",
		"request_id", req.ID(),
		"status", resp.StatusCode,
		"success", envelope.Success,
		"results", len(envelope.Results),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !envelope.Success {
		return nil, &showdown.RequestFailure{
			Message:    envelope.Error,
			StatusCode: resp.StatusCode,
		}
	}

	return api.ToResults(envelope.Results), nil
}

// Models fetches the backend's provider catalog.
func (c *Client) Models(ctx context.Context) (*showdown.Catalog, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+api.ModelsPath, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &showdown.RequestFailure{Err: err}
	}
	defer resp.Body.Close()

	var out api.ModelsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&out); err != nil {
		return nil, &showdown.RequestFailure{StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid response: %w", err)}
	}
	if !out.Success {
		return nil, &showdown.RequestFailure{StatusCode: resp.StatusCode}
	}
	return showdown.NewCatalog(out.Models...)
}
