package main

import (
	"fmt"
	"regexp"
	"time"

	"github.com/fwojciec/schemex"
	"github.com/fwojciec/schemex/crawl"
	"github.com/fwojciec/schemex/extract"
	"github.com/fwojciec/schemex/fs"
	"github.com/fwojciec/schemex/gemini"
	schemexslog "github.com/fwojciec/schemex/slog"
)

// progressWidth bounds the URL shown on progress lines.
const progressWidth = 70

// fetchRetryBackoff separates fetch attempts.
const fetchRetryBackoff = 2 * time.Second

// runPlan is the validated configuration of one run.
type runPlan struct {
	schema       schemex.Schema
	descriptions map[string]string
	synonyms     map[string][]string
	targets      []string
	filter       *schemex.URLFilter
	apiKey       string
	model        string
	out          string
	concurrency  int
}

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	plan, err := c.plan(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", schemex.ErrorMessage(err))
		return err
	}

	if c.Sitemap != "" {
		urls, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, c.Sitemap, plan.filter)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", schemex.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Found %d URLs in sitemap\n", len(urls))
		plan.targets = append(plan.targets, urls...)
	}
	if len(plan.targets) == 0 {
		err := schemex.Errorf(schemex.EINVALID, "no target URLs found")
		fmt.Fprintf(deps.Stderr, "error: %s\n", schemex.ErrorMessage(err))
		return err
	}

	fetcher, err := deps.NewFetcher(c.Backend, c.Timeout)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}
	defer fetcher.Close()

	completer, err := deps.NewCompleter(deps.Ctx, plan.apiKey, plan.model)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	runner := c.runner(deps, plan, fetcher, completer)
	result, err := runner.Run(deps.Ctx, plan.targets, plan.schema)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", schemex.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Batch %s: %d records from %d targets (%d reused, %d skipped, %d failed)\n",
		result.Timestamp, len(result.Records), result.Targets, result.Reused, result.Skipped, result.Failed)
	fmt.Fprintf(deps.Stdout, "Output: %s\n", plan.out)
	return nil
}

// plan validates flags and configuration. It performs no network activity.
func (c *RunCmd) plan(deps *Dependencies) (*runPlan, error) {
	cfg := &Config{}
	if c.Config != "" {
		var err error
		if cfg, err = LoadConfig(c.Config); err != nil {
			return nil, err
		}
	}

	plan := &runPlan{
		schema:       extract.DefaultSchema,
		descriptions: extract.DefaultDescriptions,
		synonyms:     extract.DefaultSynonyms,
		model:        firstNonEmpty(c.Model, cfg.Model, gemini.DefaultModel),
		out:          firstNonEmpty(c.Out, cfg.Output, defaultOutputDir),
		concurrency:  1,
	}
	switch {
	case len(c.Fields) > 0:
		plan.schema = schemex.Schema(c.Fields)
	case len(cfg.Fields) > 0:
		plan.schema = schemex.Schema(cfg.Fields)
	}
	if err := plan.schema.Validate(); err != nil {
		return nil, err
	}
	if cfg.Descriptions != nil {
		plan.descriptions = cfg.Descriptions
	}
	if cfg.Synonyms != nil {
		plan.synonyms = cfg.Synonyms
	}

	switch {
	case c.Concurrency < 0:
		return nil, schemex.Errorf(schemex.EINVALID, "concurrency must not be negative")
	case c.Concurrency > 0:
		plan.concurrency = c.Concurrency
	case cfg.Concurrency > 0:
		plan.concurrency = cfg.Concurrency
	}

	if len(c.Filter) > 0 {
		plan.filter = &schemex.URLFilter{}
		for _, pattern := range c.Filter {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, schemex.Errorf(schemex.EINVALID, "invalid filter pattern %q: %v", pattern, err)
			}
			plan.filter.Include = append(plan.filter.Include, re)
		}
	}

	plan.targets = append(plan.targets, c.URLs...)
	if c.URLsFile != "" {
		urls, err := readTargetsFile(c.URLsFile)
		if err != nil {
			return nil, err
		}
		plan.targets = append(plan.targets, urls...)
	}
	plan.targets = append(plan.targets, cfg.URLs...)
	if len(plan.targets) == 0 && c.Sitemap == "" {
		return nil, schemex.Errorf(schemex.EINVALID, "no target URLs: pass URLs, --urls-file, --sitemap, or urls in the config file")
	}

	plan.apiKey = deps.Getenv("GEMINI_API_KEY")
	if plan.apiKey == "" {
		return nil, schemex.Errorf(schemex.EINVALID, "GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
	}
	return plan, nil
}

// runner wires the pipeline for plan.
func (c *RunCmd) runner(deps *Dependencies, plan *runPlan, fetcher schemex.Fetcher, completer schemex.Completer) *crawl.Runner {
	logger := deps.Logger

	opts := []extract.Option{
		extract.WithDescriptions(plan.descriptions),
		extract.WithSynonyms(plan.synonyms),
		extract.WithLogger(logger),
	}
	if deps.NewTokenCounter != nil {
		if tc, err := deps.NewTokenCounter(); err != nil {
			logger.Warn("token counting disabled", "err", err)
		} else {
			opts = append(opts, extract.WithTokenCounter(tc))
		}
	}

	fetchRetry := schemex.RetryPolicy{
		MaxAttempts: c.FetchAttempts,
		Backoff:     fetchRetryBackoff,
		Retryable:   schemex.NotFoundIsFinal,
	}
	runner := &crawl.Runner{
		Fetcher:     schemexslog.NewLoggingFetcher(fetcher, logger),
		Reducer:     newReducer(c.Extractor, logger),
		Extractor:   extract.NewExtractor(schemexslog.NewLoggingCompleter(completer, logger), opts...),
		Output:      fs.NewOutputStore(plan.out),
		Results:     deps.Results,
		Resume:      c.Resume,
		Concurrency: plan.concurrency,
		FetchRetry:  fetchRetry,
		Logger:      logger,
		Progress: func(ev crawl.ProgressEvent) {
			if line := crawl.FormatProgress(ev, progressWidth); line != "" {
				fmt.Fprintln(deps.Stdout, line)
			}
		},
	}
	if plan.concurrency > 1 {
		runner.Limiter = crawl.NewDomainLimiter(c.RateLimit)
	}
	return runner
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
