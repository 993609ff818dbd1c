// Package controller provides a typed HTTP client for the local API of a
// ZeroTier-compatible network controller daemon. The client covers the
// subset of the API the admin tool needs: node status, the list of
// controller-hosted networks, per-network detail, and per-network member
// revisions.
package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the address a stock controller daemon listens on.
const DefaultBaseURL = "http://127.0.0.1:9993"

const (
	authHeader     = "X-ZT1-Auth"
	defaultTimeout = 10 * time.Second
	maxBodySize    = 4 << 20
)

// Client is an HTTP client for the controller daemon's local API.
// All methods are safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpc = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpc.Timeout = d
	}
}

// WithLogger attaches a logger to the client.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "controller-client").Logger()
	}
}

// New creates a client for the controller at baseURL authenticating with
// token. An empty baseURL selects DefaultBaseURL.
func New(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: defaultTimeout},
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the controller endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status fetches the node status of the controller daemon.
func (c *Client) Status(ctx context.Context) (*NodeStatus, error) {
	var status NodeStatus
	if err := c.get(ctx, "/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Networks returns the IDs of all networks hosted by the controller.
// The result is never nil.
func (c *Client) Networks(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.get(ctx, "/controller/network", &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Network fetches the full configuration of a single controller network.
func (c *Client) Network(ctx context.Context, id string) (*NetworkDetail, error) {
	var detail NetworkDetail
	if err := c.get(ctx, "/controller/network/"+id, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Members returns the member map of a controller network, keyed by member
// node ID with the member's revision counter as value. The result is never
// nil.
func (c *Client) Members(ctx context.Context, id string) (map[string]int64, error) {
	var members map[string]int64
	if err := c.get(ctx, "/controller/network/"+id+"/member", &members); err != nil {
		return nil, err
	}
	if members == nil {
		members = map[string]int64{}
	}
	return members, nil
}

// get performs an authenticated GET against the controller API and decodes
// the JSON response into out. Transport failures surface as
// *UnreachableError, non-2xx responses as *StatusError.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set(authHeader, c.token)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("Controller request failed")
		return &UnreachableError{Endpoint: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &UnreachableError{Endpoint: c.baseURL, Err: err}
	}

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Controller request completed")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{
			Op:   "GET " + path,
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(body)),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}
