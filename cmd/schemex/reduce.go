package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fwojciec/schemex"
	"github.com/fwojciec/schemex/goquery"
	"github.com/fwojciec/schemex/htmltomarkdown"
	"github.com/fwojciec/schemex/readability"
	"github.com/fwojciec/schemex/reduce"
	schemexslog "github.com/fwojciec/schemex/slog"
	"github.com/fwojciec/schemex/trafilatura"
)

// Run executes the reduce command.
func (c *ReduceCmd) Run(deps *Dependencies) error {
	fetcher, err := deps.NewFetcher(c.Backend, c.Timeout)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}
	defer fetcher.Close()

	html, err := schemexslog.NewLoggingFetcher(fetcher, deps.Logger).Fetch(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", schemex.ErrorMessage(err))
		return err
	}

	text := newReducer(c.Extractor, deps.Logger).Reduce(html)
	if strings.TrimSpace(text) == "" {
		err := schemex.Errorf(schemex.ENOTFOUND, "no text found at %s", c.URL)
		fmt.Fprintf(deps.Stderr, "error: %s\n", schemex.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, text)
	return nil
}

// newReducer builds the reduction pipeline around the named main-content
// extractor.
func newReducer(extractor string, logger *slog.Logger) *reduce.Reducer {
	return reduce.NewReducer(newContentExtractor(extractor), htmltomarkdown.NewConverter(), logger)
}

func newContentExtractor(name string) schemex.Extractor {
	switch name {
	case "trafilatura":
		return trafilatura.NewExtractor()
	case "readability":
		// Links are stripped from the reduced text, so relative URLs need
		// no base.
		return readability.NewExtractor(nil)
	default:
		return goquery.NewExtractor()
	}
}
