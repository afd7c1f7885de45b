package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/schemex"
	"github.com/fwojciec/schemex/bloom"
	"github.com/temoto/robotstxt"
)

// maxSitemapDepth bounds recursion through nested sitemap indexes.
const maxSitemapDepth = 5

// duplicateFalsePositiveRate sizes the filter that drops URLs listed by more
// than one sitemap. A false positive silently drops one page from discovery.
const duplicateFalsePositiveRate = 1e-6

// RobotsAgent is the user-agent token matched against robots.txt groups.
const RobotsAgent = "schemex"

// Ensure SitemapService implements schemex.SitemapService.
var _ schemex.SitemapService = (*SitemapService)(nil)

// SitemapService discovers target URLs from a portal's sitemaps.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService creates a SitemapService. A nil client means
// http.DefaultClient.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs returns every page URL listed in the site's sitemaps, in
// sitemap order without duplicates. Duplicates are detected with a Bloom
// filter, so in rare cases a distinct URL may be dropped as well. A non-root path on baseURL restricts
// results to that path subtree; paths disallowed by robots.txt are dropped.
// Returns an empty slice when the site has no sitemap.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *schemex.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, schemex.Errorf(schemex.EINVALID, "invalid base URL %q", baseURL)
	}
	prefix := strings.TrimSuffix(base.Path, "/")
	root := &url.URL{Scheme: base.Scheme, Host: base.Host}

	robots := s.robots(ctx, root.JoinPath("robots.txt").String())
	sitemaps, err := s.locateSitemaps(ctx, root, robots)
	if err != nil {
		return nil, err
	}
	var group *robotstxt.Group
	if robots != nil {
		group = robots.FindGroup(RobotsAgent)
	}

	w := &sitemapWalk{svc: s, visited: make(map[string]bool)}
	for _, sm := range sitemaps {
		if err := w.visit(ctx, sm, 0); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(w.urls))
	seen := bloom.NewFilter(uint(len(w.urls)), duplicateFalsePositiveRate)
	for _, u := range w.urls {
		if seen.TestAndAdd(u) {
			continue
		}
		if prefix != "" && !underPath(u, prefix) {
			continue
		}
		if !filter.Match(u) || !allowed(group, u) {
			continue
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// underPath reports whether rawURL's path equals prefix or lies below it.
// /schemes matches /schemes and /schemes/pm-kisan but not /schemesx.
func underPath(rawURL, prefix string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.TrimSuffix(u.Path, "/")
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// allowed reports whether group permits fetching rawURL. A nil group
// allows everything.
func allowed(group *robotstxt.Group, rawURL string) bool {
	if group == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return group.Test(u.EscapedPath())
}

// locateSitemaps returns the Sitemap: directives from robots.txt, falling
// back to /sitemap.xml when robots.txt names none.
func (s *SitemapService) locateSitemaps(ctx context.Context, root *url.URL, robots *robotstxt.RobotsData) ([]string, error) {
	if robots != nil && len(robots.Sitemaps) > 0 {
		return robots.Sitemaps, nil
	}

	fallback := root.JoinPath("sitemap.xml").String()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, fallback, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return []string{fallback}, nil
}

// robots fetches and parses robots.txt. Only a 200 response is used: a
// missing or failing robots.txt yields nil, which restricts nothing.
func (s *SitemapService) robots(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	resp, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data
}

func (s *SitemapService) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, target)
	}
	return resp, nil
}

// sitemapWalk accumulates page URLs across a tree of sitemaps.
type sitemapWalk struct {
	svc     *SitemapService
	visited map[string]bool
	urls    []string
}

func (w *sitemapWalk) visit(ctx context.Context, sitemapURL string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.visited[sitemapURL] || depth > maxSitemapDepth {
		return nil
	}
	w.visited[sitemapURL] = true

	resp, err := w.svc.get(ctx, sitemapURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("empty sitemap %s", sitemapURL)
	}

	switch root.Tag {
	case "sitemapindex":
		for _, child := range locs(root, "sitemap") {
			if err := w.visit(ctx, child, depth+1); err != nil {
				return err
			}
		}
	default:
		w.urls = append(w.urls, locs(root, "url")...)
	}
	return nil
}

// locs returns the trimmed, non-empty <loc> text of each tag child of root.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if v := strings.TrimSpace(loc.Text()); v != "" {
			out = append(out, v)
		}
	}
	return out
}
