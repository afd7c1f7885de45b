package rod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/schemex"
)

// DefaultUserAgents is the pool of desktop browser identities rotated per fetch.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// DefaultConsentKeywords are matched case-insensitively against element text,
// in priority order.
var DefaultConsentKeywords = []string{"accept", "agree", "allow", "consent", "continue", "ok", "got it"}

// ConsentElementKinds are the element kinds searched for consent controls.
var ConsentElementKinds = []string{"button", "a", "div"}

// PickUserAgent returns a user agent from pool using intn to pick an index.
// Returns "" for an empty pool, leaving the browser default in place.
func PickUserAgent(pool []string, intn func(int) int) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[intn(len(pool))]
}

// ConsentXPaths returns the lookup order for consent controls: every element
// kind for the first keyword, then every kind for the next keyword.
// Text matching is case-insensitive.
func ConsentXPaths(keywords, kinds []string) []string {
	const (
		upper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		lower = "abcdefghijklmnopqrstuvwxyz"
	)
	xpaths := make([]string, 0, len(keywords)*len(kinds))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.ReplaceAll(kw, "'", ""))
		for _, kind := range kinds {
			xpaths = append(xpaths, fmt.Sprintf("//%s[contains(translate(., '%s', '%s'), '%s')]", kind, upper, lower, kw))
		}
	}
	return xpaths
}

// ScrollUntilStable scrolls up to maxScrolls times, sleeping delay after each
// scroll, and stops early once height is unchanged between two consecutive
// measurements. It returns the number of scrolls performed.
func ScrollUntilStable(
	ctx context.Context,
	maxScrolls int,
	delay time.Duration,
	sleep schemex.SleepFunc,
	scroll func() error,
	height func() (int, error),
) (int, error) {
	last, err := height()
	if err != nil {
		return 0, err
	}
	for i := range maxScrolls {
		if err := scroll(); err != nil {
			return i, err
		}
		if err := sleep(ctx, delay); err != nil {
			return i + 1, err
		}
		h, err := height()
		if err != nil {
			return i + 1, err
		}
		if h == last {
			return i + 1, nil
		}
		last = h
	}
	return maxScrolls, nil
}
