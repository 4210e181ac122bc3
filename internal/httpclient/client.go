// Package httpclient provides the shared HTTP transport used by every
// provider strategy: one pooled client, bounded timeouts, and retry with
// exponential backoff for transient failures.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
)

const (
	// DefaultTimeout bounds a whole request including retries' individual
	// attempts. Callers override per request via context deadlines.
	DefaultTimeout = 30 * time.Second
	connectTimeout = 10 * time.Second
	maxIdleConns   = 20
)

// RequestOption mutates an outgoing request before it is sent.
type RequestOption func(*http.Request)

// Response is a fully drained HTTP response. Draining up front keeps the
// pooled connection reusable and lets retry logic inspect bodies freely.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into out.
func (r *Response) DecodeJSON(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Client wraps http.Client with the retry policy providers share.
type Client struct {
	hc         *http.Client
	maxRetries int
	onRetry    func(attempt int, wait time.Duration, reason string)
}

// New builds a client with a pooled transport. maxRetries counts retries
// beyond the first attempt; negative means use the default of 3.
func New(timeout time.Duration, maxRetries int) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = 3
	}
	return &Client{
		hc: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   connectTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        maxIdleConns,
				MaxIdleConnsPerHost: maxIdleConns,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: connectTimeout,
			},
		},
		maxRetries: maxRetries,
	}
}

// OnRetry registers a callback invoked before each backoff sleep, mainly
// for debug logging.
func (c *Client) OnRetry(fn func(attempt int, wait time.Duration, reason string)) {
	c.onRetry = fn
}

// Get issues a GET and retries transient failures.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, "", nil, opts)
}

// PostJSON issues a POST with a JSON body and retries transient failures.
func (c *Client) PostJSON(ctx context.Context, url string, payload any, opts ...RequestOption) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, "application/json", body, opts)
}

// PostForm issues a POST with a form-encoded body and retries transient
// failures.
func (c *Client) PostForm(ctx context.Context, url string, form url.Values, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, "application/x-www-form-urlencoded", []byte(form.Encode()), opts)
}

func (c *Client) do(ctx context.Context, method, url, contentType string, body []byte, opts []RequestOption) (*Response, error) {
	var lastErr error
	var lastResp *Response

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoffDelay(attempt, retryAfterHint(lastResp))
			if c.onRetry != nil {
				c.onRetry(attempt, wait, retryReason(lastResp, lastErr))
			}
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, apierr.Classify(err, "")
			}
		}

		resp, err := c.once(ctx, method, url, contentType, body, opts)
		if err != nil {
			classified := apierr.Classify(err, "")
			if !classified.Retryable || ctx.Err() != nil {
				return nil, classified
			}
			lastErr = classified
			lastResp = nil
			continue
		}

		if !apierr.RetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		lastResp = resp
		lastErr = nil
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, method, url, contentType string, body []byte, opts []RequestOption) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", userAgent)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

const userAgent = "vibeusage/cli"

func retryReason(resp *Response, err error) string {
	if resp != nil {
		return fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	if err != nil {
		return err.Error()
	}
	return "unknown"
}

// CloseIdle releases pooled connections.
func (c *Client) CloseIdle() {
	c.hc.CloseIdleConnections()
}

var (
	sharedMu sync.Mutex
	shared   *Client
)

// Shared returns the process-wide client, created lazily with defaults on
// first use.
func Shared() *Client {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = New(DefaultTimeout, 3)
	}
	return shared
}

// Configure replaces the shared client, closing the previous one's idle
// connections. Call before any fetches start.
func Configure(timeout time.Duration, maxRetries int) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		shared.CloseIdle()
	}
	shared = New(timeout, maxRetries)
}

// Close releases the shared client's pooled connections. Safe to call when
// no client was ever created.
func Close() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		shared.CloseIdle()
	}
}

// SummarizeBody returns a short summary of an HTTP response body suitable
// for error messages. Empty bodies return "empty body"; bodies longer than
// 120 characters are truncated with "...".
func SummarizeBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty body"
	}
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
