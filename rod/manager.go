package rod

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of pages served by one Chrome process
// before it is replaced.
const DefaultMaxPages = 75

// errManagerClosed is returned by Acquire after Close.
var errManagerClosed = errors.New("browser manager closed")

// BrowserManager hands out a shared Chrome instance one page at a time and
// replaces it after maxPages pages, since Chrome's baseline memory keeps
// growing over long batches even when every page is closed.
//
// A replaced instance is retired, not killed: it shuts down when the last
// page leased from it is released, so concurrent fetches never lose their
// browser mid-page.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	current  *instance
	maxPages int64
	headless bool
	closed   bool

	// launch starts a new instance. Replaced in tests.
	launch func(headless bool) (*instance, error)
}

// instance is one Chrome process and its lease bookkeeping.
type instance struct {
	browser *rod.Browser
	pid     int
	stop    func() error

	pages   int64
	leases  int
	retired bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets how many pages one instance serves before it is replaced.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithHeadless controls whether Chrome runs without a window. Defaults to true.
func WithHeadless(headless bool) ManagerOption {
	return func(bm *BrowserManager) {
		bm.headless = headless
	}
}

// NewBrowserManager launches Chrome and returns a manager for it.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	return newBrowserManager(launchChrome, opts...)
}

func newBrowserManager(launch func(bool) (*instance, error), opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		headless: true,
		launch:   launch,
	}
	for _, opt := range opts {
		opt(bm)
	}

	inst, err := bm.launch(bm.headless)
	if err != nil {
		return nil, err
	}
	bm.current = inst
	return bm, nil
}

// Acquire leases the current browser for one page. The returned release
// function must be called once the page is closed; calling it more than once
// has no effect.
//
// When the current instance has served maxPages pages a fresh one is launched
// first. If that launch fails the old instance keeps serving.
func (bm *BrowserManager) Acquire() (*rod.Browser, func(), error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, nil, errManagerClosed
	}
	if bm.maxPages > 0 && bm.current.pages >= bm.maxPages {
		bm.replace()
	}

	inst := bm.current
	inst.pages++
	inst.leases++

	var once sync.Once
	release := func() {
		once.Do(func() {
			bm.mu.Lock()
			defer bm.mu.Unlock()
			inst.leases--
			if inst.retired && inst.leases == 0 {
				_ = inst.stop()
			}
		})
	}
	return inst.browser, release, nil
}

// replace swaps in a new instance and retires the old one.
// Must be called with mu held.
func (bm *BrowserManager) replace() {
	next, err := bm.launch(bm.headless)
	if err != nil {
		return
	}
	old := bm.current
	bm.current = next
	bm.retire(old)
}

// retire marks inst for shutdown and stops it now if nothing holds a lease.
// Must be called with mu held.
func (bm *BrowserManager) retire(inst *instance) error {
	inst.retired = true
	if inst.leases > 0 {
		return nil
	}
	return inst.stop()
}

// Close retires the current instance. Pages still open keep working until
// they are released. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	return bm.retire(bm.current)
}

// LauncherPID returns the process ID of the current browser launcher, or 0
// once the manager is closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.closed {
		return 0
	}
	return bm.current.pid
}

// launchChrome starts Chrome with stability flags and a profile that hides
// the usual automation markers, so consent walls and bot checks treat the
// session like a regular desktop browser.
func launchChrome(headless bool) (*instance, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Set("disable-gpu").
		Set("disable-search-engine-choice-screen").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", "1920,1080").
		Delete("enable-automation").
		Leakless(true).
		Headless(headless)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &instance{
		browser: browser,
		pid:     l.PID(),
		stop: func() error {
			err := browser.Close()
			l.Kill()
			return err
		},
	}, nil
}
