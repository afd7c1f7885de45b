package crawl

import (
	"context"
	"sync"

	"github.com/fwojciec/schemex"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

var _ schemex.DomainLimiter = (*DomainLimiter)(nil)

// maxTrackedDomains bounds the number of per-host buckets kept at once.
// Evicting an idle host only forgets its last request time.
const maxTrackedDomains = 1024

// DomainLimiter limits requests per host with one token bucket per host, so
// workers hitting different sites do not slow each other down.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	every    rate.Limit
}

// NewDomainLimiter returns a limiter allowing rps requests per second to
// each host, without bursting. A non-positive rps disables limiting.
func NewDomainLimiter(rps float64) *DomainLimiter {
	every := rate.Limit(rps)
	if rps <= 0 {
		every = rate.Inf
	}
	cache, _ := lru.New[string, *rate.Limiter](maxTrackedDomains)
	return &DomainLimiter{
		limiters: cache,
		every:    every,
	}
}

// Wait blocks until a request to domain is allowed or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters.Get(domain)
	if !ok {
		limiter = rate.NewLimiter(d.every, 1)
		d.limiters.Add(domain, limiter)
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

// Tracked returns the number of hosts with a live bucket.
func (d *DomainLimiter) Tracked() int {
	return d.limiters.Len()
}
