// Package catalog fetches priced-SKU records from the public OCI price-list
// API (cetools).
//
// The API is a paginated JSON GET endpoint accepting partNumber and
// currencyCode query parameters. It is a public subset of the full catalogue:
// empty item lists are normal, not errors.
//
// A [Client] carries configuration only and is safe to share. Each tool
// invocation opens its own [Session], which owns a dedicated [http.Client]
// for the lifetime of that call. Transient upstream failures (5xx, network
// errors) are retried with exponential backoff; other HTTP errors propagate
// immediately.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opentariff/ocipricer/internal/observe"
)

// DefaultEndpoint is the public OCI price-list API.
const DefaultEndpoint = "https://apexapps.oracle.com/pls/apex/cetools/api/v1/products/"

// Defaults for the retry/backoff policy and the per-request deadline.
const (
	DefaultTimeout = 25 * time.Second
	DefaultRetries = 2
	DefaultBackoff = 500 * time.Millisecond
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: upstream returned %d for %s", e.StatusCode, e.URL)
}

// Client holds immutable configuration for talking to the price-list API.
// Create instances with [New]; the zero value is not usable.
type Client struct {
	endpoint string
	origin   string // scheme://host, used to absolutise relative next links
	timeout  time.Duration
	retries  int
	backoff  time.Duration
	metrics  *observe.Metrics
}

// Option is a functional option for [New].
type Option func(*Client)

// WithTimeout sets the per-request HTTP deadline. Default: 25s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how many times a transient failure is retried on top of
// the initial attempt. Default: 2 (three attempts total).
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the initial backoff delay; the delay doubles on each
// subsequent retry. Default: 500ms.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithMetrics overrides the [observe.Metrics] instance used for fetch
// instrumentation. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New creates a Client for the given endpoint. An empty endpoint selects
// [DefaultEndpoint].
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog: endpoint %q must be an absolute URL", endpoint)
	}

	c := &Client{
		endpoint: endpoint,
		origin:   u.Scheme + "://" + u.Host,
		timeout:  DefaultTimeout,
		retries:  DefaultRetries,
		backoff:  DefaultBackoff,
		metrics:  observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Endpoint returns the configured upstream URL.
func (c *Client) Endpoint() string { return c.endpoint }

// NewSession opens a Session with a fresh [http.Client]. Sessions are scoped
// to a single tool invocation and must not be shared across calls.
func (c *Client) NewSession() *Session {
	return &Session{
		client: c,
		http:   &http.Client{Timeout: c.timeout},
	}
}

// Check probes the upstream endpoint with a single bounded request. Used by
// the readiness handler.
func (c *Client) Check(ctx context.Context, currency string) error {
	s := c.NewSession()
	defer s.Close()
	_, err := s.Fetch(ctx, c.endpoint, url.Values{"currencyCode": {currency}})
	return err
}

// Session is a per-invocation handle on the price-list API. It is owned
// exclusively by one call and is not safe for concurrent use.
type Session struct {
	client *Client
	http   *http.Client
}

// Close releases the session's idle connections.
func (s *Session) Close() {
	s.http.CloseIdleConnections()
}

// BySKU fetches the page for one part number in the given currency.
func (s *Session) BySKU(ctx context.Context, partNumber, currency string) (*Page, error) {
	return s.Fetch(ctx, s.client.endpoint, url.Values{
		"partNumber":   {partNumber},
		"currencyCode": {currency},
	})
}

// Fetch GETs one page, retrying transient failures (network errors and 5xx
// responses) with exponential backoff up to the configured retry count.
// Non-5xx HTTP errors propagate immediately. A response body that is not
// valid JSON decodes to an empty page rather than an error — absence is
// normal in the public subset.
func (s *Session) Fetch(ctx context.Context, rawURL string, params url.Values) (*Page, error) {
	start := time.Now()
	m := s.client.metrics

	var attempt int
	for {
		page, retryable, err := s.fetchOnce(ctx, rawURL, params)
		if err == nil {
			m.RecordFetch(ctx, time.Since(start).Seconds(), "ok")
			return page, nil
		}
		if !retryable || attempt >= s.client.retries {
			reason := "network"
			var se *StatusError
			if errors.As(err, &se) {
				reason = "status"
			}
			m.RecordFetch(ctx, time.Since(start).Seconds(), "error")
			m.RecordUpstreamError(ctx, reason)
			return nil, err
		}

		m.RecordRetry(ctx)
		delay := s.client.backoff * time.Duration(1<<attempt)
		observe.Logger(ctx).Debug("retrying upstream fetch",
			"url", rawURL, "attempt", attempt+1, "delay", delay, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		attempt++
	}
}

// fetchOnce performs a single GET. The second return value reports whether
// the failure is transient and worth retrying.
func (s *Session) fetchOnce(ctx context.Context, rawURL string, params url.Values) (*Page, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("catalog: build request for %s: %w", rawURL, err)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		// Connection failures, timeouts, protocol errors.
		return nil, true, fmt.Errorf("catalog: get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("catalog: read %s: %w", rawURL, err)
	}

	page := &Page{}
	if err := json.Unmarshal(body, page); err != nil {
		// Malformed payloads are treated as an empty page.
		return &Page{}, false, nil
	}
	return page, false, nil
}

// Items returns an iterator over catalogue items across pages in the given
// currency, following rel=="next" links up to maxPages. The sequence is
// finite by construction and not restartable: iterate it once.
func (s *Session) Items(ctx context.Context, currency string, maxPages int) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		rawURL := s.client.endpoint
		params := url.Values{"currencyCode": {currency}}

		for range maxPages {
			page, err := s.Fetch(ctx, rawURL, params)
			if err != nil {
				yield(Item{}, err)
				return
			}
			for _, it := range page.Items {
				if !yield(it, nil) {
					return
				}
			}

			next := page.NextHref()
			if next == "" {
				return
			}
			if !strings.HasPrefix(next, "http") {
				next = s.client.origin + next
			}
			rawURL, params = next, nil
		}
	}
}
