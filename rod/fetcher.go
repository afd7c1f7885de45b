package rod

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/fwojciec/schemex"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Defaults for Fetcher options.
const (
	DefaultFetchTimeout    = 30 * time.Second
	DefaultContentTimeout  = 10 * time.Second
	DefaultContentSelector = "main"
	DefaultMaxScrolls      = 5
	DefaultScrollDelay     = 2 * time.Second
	DefaultConsentDelay    = 2 * time.Second
)

// settleSlack covers the browser round trips of the settle phase on top of
// its configured delays.
const settleSlack = 5 * time.Second

// Ensure Fetcher implements schemex.Fetcher at compile time.
var _ schemex.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
//
// Every fetch runs in its own incognito browser context with a user agent
// drawn from a fixed pool. After the page loads, the fetcher dismisses
// cookie/consent overlays, scrolls to trigger lazy-loaded content and waits
// for the primary content element before serializing the DOM.
//
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager *BrowserManager
	closed  atomic.Bool

	timeout         time.Duration
	contentTimeout  time.Duration
	contentSelector string
	maxScrolls      int
	scrollDelay     time.Duration
	consentDelay    time.Duration
	consentKeywords []string
	userAgents      []string
	managerOpts     []ManagerOption
	sleep           schemex.SleepFunc
	logger          *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout bounds navigation and the page load event. Consent
// handling, scrolling and the content wait have their own limits and do not
// draw on it. Defaults to DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithContentSelector sets the CSS selector of the primary content marker.
// An empty selector disables the wait.
func WithContentSelector(selector string) Option {
	return func(f *Fetcher) { f.contentSelector = selector }
}

// WithContentTimeout bounds the wait for the content marker.
func WithContentTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.contentTimeout = d }
}

// WithMaxScrolls sets the maximum number of scroll-to-bottom cycles.
func WithMaxScrolls(n int) Option {
	return func(f *Fetcher) { f.maxScrolls = n }
}

// WithScrollDelay sets the settle delay after each scroll.
func WithScrollDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.scrollDelay = d }
}

// WithUserAgents replaces the user agent pool.
func WithUserAgents(agents []string) Option {
	return func(f *Fetcher) { f.userAgents = agents }
}

// WithConsentKeywords replaces the affirmative consent keywords.
func WithConsentKeywords(keywords []string) Option {
	return func(f *Fetcher) { f.consentKeywords = keywords }
}

// WithBrowserOptions passes options to the underlying BrowserManager.
func WithBrowserOptions(opts ...ManagerOption) Option {
	return func(f *Fetcher) { f.managerOpts = append(f.managerOpts, opts...) }
}

// WithLogger sets the logger for page-level events (consent clicks,
// scrolling, missing content marker).
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:         DefaultFetchTimeout,
		contentTimeout:  DefaultContentTimeout,
		contentSelector: DefaultContentSelector,
		maxScrolls:      DefaultMaxScrolls,
		scrollDelay:     DefaultScrollDelay,
		consentDelay:    DefaultConsentDelay,
		consentKeywords: DefaultConsentKeywords,
		userAgents:      DefaultUserAgents,
		sleep:           schemex.Sleep,
		logger:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager(f.managerOpts...)
	if err != nil {
		return nil, err
	}
	f.manager = manager

	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.closed.Load() {
		return "", schemex.Errorf(schemex.EINVALID, "fetcher closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browser, release, err := f.manager.Acquire()
	if err != nil {
		return "", schemex.Errorf(schemex.EINVALID, "fetcher closed")
	}
	defer release()

	session, err := browser.Incognito()
	if err != nil {
		return "", fmt.Errorf("opening browser session: %w", err)
	}
	defer session.Close()

	page, err := session.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("creating page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	ua := PickUserAgent(f.userAgents, rand.IntN)
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		return "", fmt.Errorf("setting user agent: %w", err)
	}

	if err := f.load(page, url); err != nil {
		return "", err
	}

	f.settle(ctx, page, url)

	// The settle phase may have used up its own deadline; reading the DOM
	// runs under the caller's context only.
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("reading rendered HTML: %w", err)
	}
	return html, nil
}

// load navigates and waits for the load event within the fetch timeout.
func (f *Fetcher) load(page *rod.Page, url string) error {
	p := page.Timeout(f.timeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for %s to load: %w", url, err)
	}
	return nil
}

// settle dismisses consent overlays, scrolls and waits for the content
// marker. Each step tolerates failure. The whole phase is capped at the sum
// of its step limits plus settleSlack so a hung renderer cannot stall the
// fetch.
func (f *Fetcher) settle(ctx context.Context, page *rod.Page, url string) {
	budget := f.consentDelay + time.Duration(f.maxScrolls)*f.scrollDelay + f.contentTimeout + settleSlack
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	p := page.Context(ctx)

	f.dismissConsent(ctx, p, url)
	f.scroll(ctx, p, url)
	f.waitForContent(p, url)
}

// dismissConsent clicks the first visible, enabled element whose text
// matches a consent keyword. Failing to find one is not an error.
func (f *Fetcher) dismissConsent(ctx context.Context, page *rod.Page, url string) {
	for _, xpath := range ConsentXPaths(f.consentKeywords, ConsentElementKinds) {
		elements, err := page.ElementsX(xpath)
		if err != nil {
			f.logger.Warn("consent lookup failed", "url", url, "err", err)
			return
		}
		for _, el := range elements {
			if !clickable(el) {
				continue
			}
			if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
				continue
			}
			f.logger.Info("clicked consent element", "url", url, "xpath", xpath)
			_ = f.sleep(ctx, f.consentDelay)
			return
		}
	}
	f.logger.Debug("no consent element found", "url", url)
}

// clickable reports whether el is displayed and not disabled.
func clickable(el *rod.Element) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	disabled, err := el.Property("disabled")
	if err != nil {
		return false
	}
	return !disabled.Bool()
}

func (f *Fetcher) scroll(ctx context.Context, page *rod.Page, url string) {
	n, err := ScrollUntilStable(ctx, f.maxScrolls, f.scrollDelay, f.sleep,
		func() error {
			_, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
			return err
		},
		func() (int, error) {
			res, err := page.Eval(`() => document.body.scrollHeight`)
			if err != nil {
				return 0, err
			}
			return res.Value.Int(), nil
		},
	)
	if err != nil {
		f.logger.Warn("scrolling stopped", "url", url, "scrolls", n, "err", err)
		return
	}
	f.logger.Debug("scrolling finished", "url", url, "scrolls", n)
}

// waitForContent waits for the content marker. Timing out is tolerated:
// the page is returned with whatever has rendered so far.
func (f *Fetcher) waitForContent(page *rod.Page, url string) {
	if f.contentSelector == "" {
		return
	}
	p := page.Timeout(f.contentTimeout)
	defer p.CancelTimeout()
	if _, err := p.Element(f.contentSelector); err != nil {
		f.logger.Warn("content marker not found", "url", url, "selector", f.contentSelector, "err", err)
	}
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
