package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/schemex"
)

// Ensure LoggingSitemapService implements schemex.SitemapService.
var _ schemex.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with logging.
type LoggingSitemapService struct {
	next   schemex.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next schemex.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs how many targets
// survived the filter. A discovery that yields nothing is logged at warn
// because the run will have no targets.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *schemex.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		attrs := []slog.Attr{
			slog.String("url", baseURL),
			slog.Int("targets", len(urls)),
			slog.Duration("duration", time.Since(begin)),
		}
		if filter != nil {
			attrs = append(attrs,
				slog.Int("include", len(filter.Include)),
				slog.Int("exclude", len(filter.Exclude)),
			)
		}
		level := slog.LevelInfo
		if err != nil {
			attrs = append(attrs, slog.Any("err", err))
			level = slog.LevelWarn
		} else if len(urls) == 0 {
			level = slog.LevelWarn
		}
		s.logger.LogAttrs(ctx, level, "sitemap discovery", attrs...)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}
