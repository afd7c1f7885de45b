package slog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fwojciec/schemex"
)

// Ensure LoggingFetcher implements schemex.Fetcher.
var _ schemex.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging. Successful fetches are logged
// at info, failures at warn, and fetches cut short by cancellation at debug
// since the batch reports the interruption itself.
type LoggingFetcher struct {
	next   schemex.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next schemex.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		attrs := []slog.Attr{
			slog.String("url", url),
			slog.Int("bytes", len(html)),
			slog.Duration("duration", time.Since(begin)),
		}
		if err != nil {
			attrs = append(attrs, slog.Any("err", err))
		}
		f.logger.LogAttrs(ctx, fetchLevel(err), "fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

func fetchLevel(err error) slog.Level {
	switch {
	case err == nil:
		return slog.LevelInfo
	case errors.Is(err, context.Canceled):
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

// Close delegates to the wrapped fetcher and logs a failed shutdown.
func (f *LoggingFetcher) Close() error {
	err := f.next.Close()
	if err != nil {
		f.logger.Warn("close fetcher", "err", err)
	}
	return err
}
