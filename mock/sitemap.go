package mock

import (
	"context"

	"github.com/fwojciec/schemex"
)

var (
	_ schemex.SitemapService = (*SitemapService)(nil)
	_ schemex.DomainLimiter  = (*DomainLimiter)(nil)
)

// SitemapService is a mock implementation of schemex.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *schemex.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *schemex.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}

// DomainLimiter is a mock implementation of schemex.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
