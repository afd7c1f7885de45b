// Package http provides plain HTTP implementations of schemex.Fetcher and
// schemex.SitemapService for portals that serve their content without
// client-side rendering.
package http

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fwojciec/schemex"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout matches the browser fetcher's page budget.
const DefaultFetchTimeout = 30 * time.Second

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 10 << 20

// DefaultUserAgents is rotated per request.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// Ensure Fetcher implements schemex.Fetcher at compile time.
var _ schemex.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves raw HTML over HTTP. It does not execute JavaScript.
type Fetcher struct {
	client     *http.Client
	timeout    time.Duration
	userAgents []string
	pick       func(int) int
	closed     atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgents replaces the user agent pool.
func WithUserAgents(agents []string) Option {
	return func(f *Fetcher) {
		f.userAgents = agents
	}
}

// WithClient sets the underlying HTTP client. The client's Timeout is
// overwritten by the fetcher timeout.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     &http.Client{},
		timeout:    DefaultFetchTimeout,
		userAgents: DefaultUserAgents,
		pick:       rand.IntN,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client.Timeout = f.timeout
	return f
}

// Fetch retrieves the HTML body at url, transcoded to UTF-8 from the charset
// declared in the Content-Type header or the document's meta tags.
// Pages that are gone (404, 410) report ENOTFOUND; any other non-200
// status is a plain error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.closed.Load() {
		return "", schemex.Errorf(schemex.EINVALID, "fetcher closed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if len(f.userAgents) > 0 {
		req.Header.Set("User-Agent", f.userAgents[f.pick(len(f.userAgents))])
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return "", schemex.Errorf(schemex.ENOTFOUND, "HTTP %d for %s", resp.StatusCode, url)
	default:
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, MaxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", url, err)
	}
	html, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(html), nil
}

// Close marks the fetcher closed. It is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.closed.Store(true)
	return nil
}
