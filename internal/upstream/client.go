// Package upstream calls the remote agent-invocation endpoint. The client
// exists to keep the service credential off the dashboard's callers: the
// request body is forwarded verbatim and the response comes back verbatim.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIKeyHeader carries the service credential on invocation requests.
const DefaultAPIKeyHeader = "x-orca-api-key"

// ErrUnavailable wraps transport-level failures reaching the endpoint
// (DNS, TLS, connection refused). HTTP error statuses are NOT this error:
// they come back as a normal Response for the caller's failure path.
var ErrUnavailable = errors.New("upstream unavailable")

// Config configures the upstream client.
type Config struct {
	// URL is the agent-invocation endpoint.
	URL string

	// APIKey is the service credential attached to every request.
	APIKey string

	// APIKeyHeader overrides the credential header name.
	APIKeyHeader string

	// Timeout bounds the whole round trip. Zero means no timeout: a
	// hung upstream call holds the interaction open indefinitely.
	Timeout time.Duration
}

// Response is the upstream reply, unchanged: same status code, body bytes
// as received. No parsing or re-encoding happens here.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client invokes the agent endpoint. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	header     string
}

// New creates an upstream client.
func New(cfg Config) (*Client, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("upstream url is required")
	}
	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        url,
		apiKey:     cfg.APIKey,
		header:     header,
	}, nil
}

// Invoke POSTs the raw JSON body to the endpoint and buffers the full
// reply. Exactly one upstream call per invocation; no retry, no
// circuit-breaking, no streaming.
func (c *Client) Invoke(ctx context.Context, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.header, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       respBody,
	}, nil
}
