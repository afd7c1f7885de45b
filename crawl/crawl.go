// Package crawl runs extraction over batches of target URLs.
// It coordinates fetching, reduction, extraction, and persistence of one
// record per target, isolating failures so that a bad page never stops the
// batch.
package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/schemex"
	"golang.org/x/sync/errgroup"
)

// TimestampLayout formats the batch start time into the batch identifier.
const TimestampLayout = "20060102_150405"

// Runner processes target lists. Fetcher, Reducer, Extractor and Output are
// required; the remaining fields are optional.
type Runner struct {
	Fetcher   schemex.Fetcher
	Reducer   schemex.Reducer
	Extractor schemex.RecordExtractor
	Output    schemex.OutputStore

	// Results keeps one record per URL across runs.
	Results schemex.ResultStore

	// Resume reuses a stored record when the page text is unchanged.
	// Requires Results.
	Resume bool

	// Limiter is shared by all workers and keyed by host.
	Limiter schemex.DomainLimiter

	// Concurrency is the number of workers. Values below 2 process targets
	// sequentially.
	Concurrency int

	// Pacer spaces out consecutive targets of one worker.
	// Nil means DefaultPacer.
	Pacer *Pacer

	// FetchRetry retries failed fetches. The zero value fetches once.
	FetchRetry schemex.RetryPolicy

	Logger   *slog.Logger
	Progress ProgressFunc

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

type status int

const (
	statusPending status = iota
	statusExtracted
	statusReused
	statusSkipped
	statusFailed
)

// outcome holds the result of processing a single target.
type outcome struct {
	status  status
	records []*schemex.Record
}

// Run processes targets in order and returns the accumulated records.
// It returns an error only when the schema is invalid; per-target failures
// are logged and counted instead. A list with no usable target completes
// with zero records.
func (r *Runner) Run(ctx context.Context, targets []string, schema schemex.Schema) (*schemex.BatchResult, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	logger := r.logger()
	urls := PrepareTargets(targets, logger)

	begin := r.now()
	batch := begin.Format(TimestampLayout)
	logger.Info("batch started", "batch", batch, "targets", len(urls), "workers", r.workers(len(urls)))
	r.notify(ProgressEvent{Type: ProgressStarted, Total: len(urls)})

	outcomes, err := r.process(ctx, batch, urls, schema)

	result := &schemex.BatchResult{
		Timestamp: batch,
		Records:   []*schemex.Record{},
		Targets:   len(urls),
	}
	var pending int
	for _, o := range outcomes {
		switch o.status {
		case statusExtracted:
			result.Extracted++
		case statusReused:
			result.Reused++
		case statusSkipped:
			result.Skipped++
		case statusFailed:
			result.Failed++
		default:
			pending++
		}
		result.Records = append(result.Records, o.records...)
	}
	if pending > 0 {
		if err == nil {
			err = ctx.Err()
		}
		logger.Warn("batch interrupted", "batch", batch, "remaining", pending, "err", err)
	}

	// Partial results are still written after cancellation.
	saveCtx := context.WithoutCancel(ctx)
	if len(result.Records) > 0 {
		if err := r.Output.SaveResult(saveCtx, batch, schemex.CombinedSource, schema, result.Records); err != nil {
			logger.Error("save combined result", "batch", batch, "err", err)
		}
	} else {
		logger.Warn("no data extracted", "batch", batch)
	}

	r.notify(ProgressEvent{Type: ProgressFinished, Completed: len(urls) - pending, Total: len(urls)})
	logger.Info("batch finished",
		"batch", batch,
		"records", len(result.Records),
		"processed", len(urls)-pending,
		"extracted", result.Extracted,
		"reused", result.Reused,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", r.now().Sub(begin),
	)
	return result, nil
}

// process fans targets out to the workers. Results are stored by position
// so the caller sees them in target order regardless of which worker
// finished first. A worker that cannot pace stops the whole pool; the
// returned error names the cause.
func (r *Runner) process(ctx context.Context, batch string, urls []Target, schema schemex.Schema) ([]outcome, error) {
	outcomes := make([]outcome, len(urls))
	jobs := make(chan int)
	var completed atomic.Int64
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range urls {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	pacer := r.pacer()
	for range r.workers(len(urls)) {
		g.Go(func() error {
			first := true
			for i := range jobs {
				if !first {
					if err := pacer.Wait(ctx); err != nil {
						if ctx.Err() != nil {
							return nil
						}
						return fmt.Errorf("pacing: %w", err)
					}
				}
				first = false
				if ctx.Err() != nil {
					return nil
				}

				o := r.processTarget(ctx, batch, urls[i], schema)
				outcomes[i] = o

				ev := ProgressEvent{
					Type:      ProgressCompleted,
					Completed: int(completed.Add(1)),
					Total:     len(urls),
					URL:       urls[i].URL,
				}
				if o.status == statusFailed {
					ev.Type = ProgressFailed
				}
				mu.Lock()
				r.notify(ev)
				mu.Unlock()
			}
			return nil
		})
	}
	return outcomes, g.Wait()
}

// processTarget runs the per-target pipeline. Every failure is logged and
// reported through the outcome status.
func (r *Runner) processTarget(ctx context.Context, batch string, t Target, schema schemex.Schema) outcome {
	target := t.URL
	logger := r.logger().With("url", target, "index", t.Index)

	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx, host(target)); err != nil {
			return outcome{}
		}
	}

	html, err := schemex.Retry(ctx, r.FetchRetry, func(ctx context.Context) (string, error) {
		return r.Fetcher.Fetch(ctx, target)
	})
	if err != nil {
		logger.Warn("fetch failed", "err", err)
		return outcome{status: statusFailed}
	}
	if strings.TrimSpace(html) == "" {
		logger.Warn("fetch returned empty page")
		return outcome{status: statusFailed}
	}

	text := r.Reducer.Reduce(html)
	if err := r.Output.SaveRaw(ctx, batch, t.Index, text); err != nil {
		logger.Error("save raw text", "err", err)
	}
	if strings.TrimSpace(text) == "" {
		logger.Warn("no text after reduction")
		return outcome{status: statusSkipped}
	}

	hash := schemex.ContentHash(text)
	if rec := r.reuse(ctx, target, hash, schema, logger); rec != nil {
		records := []*schemex.Record{rec}
		r.saveResult(ctx, batch, target, schema, records, logger)
		return outcome{status: statusReused, records: records}
	}

	extracted := r.Extractor.Extract(ctx, text, schema, target)
	if extracted.Empty() {
		logger.Warn("no records extracted")
		return outcome{status: statusSkipped}
	}

	r.saveResult(ctx, batch, target, schema, extracted.Records, logger)
	r.store(ctx, batch, target, hash, extracted.Records[0], logger)
	logger.Info("target extracted", "records", len(extracted.Records))
	return outcome{status: statusExtracted, records: extracted.Records}
}

func (r *Runner) saveResult(ctx context.Context, batch, target string, schema schemex.Schema, records []*schemex.Record, logger *slog.Logger) {
	if err := r.Output.SaveResult(context.WithoutCancel(ctx), batch, target, schema, records); err != nil {
		logger.Error("save result", "err", err)
	}
}

// reuse returns the stored record for target when its content hash matches
// and it was extracted with the same field set.
func (r *Runner) reuse(ctx context.Context, target, hash string, schema schemex.Schema, logger *slog.Logger) *schemex.Record {
	if !r.Resume || r.Results == nil {
		return nil
	}
	stored, err := r.Results.FindResultByURL(ctx, target)
	if err != nil {
		if schemex.ErrorCode(err) != schemex.ENOTFOUND {
			logger.Warn("lookup stored result", "err", err)
		}
		return nil
	}
	if stored.Record == nil || stored.ContentHash != hash || !slices.Equal(stored.Record.Fields(), schema.Columns()) {
		return nil
	}
	logger.Info("reusing stored record", "batch", stored.Batch)
	return stored.Record
}

func (r *Runner) store(ctx context.Context, batch, target, hash string, rec *schemex.Record, logger *slog.Logger) {
	if r.Results == nil {
		return
	}
	err := r.Results.UpsertResult(context.WithoutCancel(ctx), &schemex.StoredResult{
		URL:         target,
		Batch:       batch,
		ContentHash: hash,
		Record:      rec,
		ExtractedAt: r.now().UTC(),
	})
	if err != nil {
		logger.Error("store result", "err", err)
	}
}

func (r *Runner) workers(n int) int {
	return max(1, min(r.Concurrency, n))
}

func (r *Runner) pacer() *Pacer {
	if r.Pacer != nil {
		return r.Pacer
	}
	return DefaultPacer()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) notify(ev ProgressEvent) {
	if r.Progress != nil {
		r.Progress(ev)
	}
}

func host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
