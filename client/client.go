// Package client provides the JSON HTTP client and URL builders used by sources.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/git-pkgs/npmchart/fetch"
)

const (
	defaultUserAgent   = "npmchart"
	defaultTimeout     = 30 * time.Second
	defaultMaxBodySize = 128 << 20 // full npm packuments can be tens of MiB
)

// Client is an HTTP client for registry and statistics APIs.
// Requests go through a DNS-cached transport guarded by per-host circuit breakers.
type Client struct {
	userAgent     string
	timeout       time.Duration
	maxRetries    int
	baseDelay     time.Duration
	tripThreshold int64
	maxBodySize   int64

	custom   fetch.FetcherInterface
	fetcher  fetch.FetcherInterface
	breakers *fetch.CircuitBreakerFetcher
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxRetries sets the maximum number of retries on 429 and 5xx responses.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBaseDelay sets the base delay between retries.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithTripThreshold sets the consecutive failures that open a host's circuit breaker.
func WithTripThreshold(n int64) Option {
	return func(c *Client) {
		c.tripThreshold = n
	}
}

// WithMaxBodySize limits the size of decoded response bodies.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		c.maxBodySize = n
	}
}

// WithFetcher replaces the transport. Breakers are still applied on top of it.
func WithFetcher(f fetch.FetcherInterface) Option {
	return func(c *Client) {
		c.custom = f
	}
}

// DefaultClient returns a client with sensible defaults:
// - 30s timeout
// - no retries
// - circuit breaker per upstream host, tripping after 5 failures
func DefaultClient() *Client {
	return NewClient()
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		userAgent:     defaultUserAgent,
		timeout:       defaultTimeout,
		baseDelay:     500 * time.Millisecond,
		tripThreshold: fetch.DefaultTripThreshold,
		maxBodySize:   defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.build()
	return c
}

func (c *Client) build() {
	inner := c.custom
	if inner == nil {
		inner = fetch.NewFetcher(
			fetch.WithUserAgent(c.userAgent),
			fetch.WithTimeout(c.timeout),
			fetch.WithMaxRetries(c.maxRetries),
			fetch.WithBaseDelay(c.baseDelay),
		)
	}
	c.breakers = fetch.NewCircuitBreakerFetcherWithThreshold(inner, c.tripThreshold)
	c.fetcher = c.breakers
}

// WithUserAgent returns a copy of the client that sends the given User-Agent.
func (c *Client) WithUserAgent(ua string) *Client {
	cp := *c
	cp.userAgent = ua
	cp.build()
	return &cp
}

// BreakerState reports "open" or "closed" per upstream host.
func (c *Client) BreakerState() map[string]string {
	return c.breakers.GetBreakerState()
}

// Stream fetches url and passes the body to fn. The body is closed afterwards.
func (c *Client) Stream(ctx context.Context, url string, fn func(io.Reader) error) error {
	resp, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return translate(err)
	}
	defer func() { _ = resp.Body.Close() }()

	return fn(io.LimitReader(resp.Body, c.maxBodySize))
}

// GetBody fetches url and returns the whole body.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.Stream(ctx, url, func(r io.Reader) error {
		var err error
		body, err = io.ReadAll(r)
		return err
	})
	return body, err
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	return c.Stream(ctx, url, func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(v); err != nil {
			return fmt.Errorf("decoding %s: %w", url, err)
		}
		return nil
	})
}

// translate maps transport errors onto the client's error types.
func translate(err error) error {
	var statusErr *fetch.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	if statusErr.StatusCode == 429 {
		return &RateLimitError{RetryAfter: statusErr.RetryAfter, Err: err}
	}
	return &HTTPError{
		StatusCode: statusErr.StatusCode,
		URL:        statusErr.URL,
		Body:       statusErr.Body,
		Err:        err,
	}
}
