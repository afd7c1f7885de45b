// Package reduce turns rendered scheme pages into compact text for the
// language model.
package reduce

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/fwojciec/schemex"
)

// Ensure Reducer implements schemex.Reducer at compile time.
var _ schemex.Reducer = (*Reducer)(nil)

var (
	blankRuns  = regexp.MustCompile(`\n{3,}`)
	urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
)

// Reducer selects the main content of a page, converts it to Markdown and
// normalizes the result.
type Reducer struct {
	extractor schemex.Extractor
	converter schemex.Converter
	logger    *slog.Logger
}

// NewReducer creates a Reducer. A nil logger discards warnings.
func NewReducer(extractor schemex.Extractor, converter schemex.Converter, logger *slog.Logger) *Reducer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reducer{extractor: extractor, converter: converter, logger: logger}
}

// Reduce returns normalized Markdown for html, or "" when the page yields
// nothing usable. Failures are logged, never returned.
func (r *Reducer) Reduce(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	content, err := r.extractor.Extract(html)
	if err != nil {
		r.logger.Warn("content selection failed", "bytes", len(html), "err", err)
		return ""
	}
	if strings.TrimSpace(content.ContentHTML) == "" {
		return ""
	}

	md, err := r.converter.Convert(content.ContentHTML)
	if err != nil {
		r.logger.Warn("markdown conversion failed", "bytes", len(content.ContentHTML), "err", err)
		return ""
	}

	return Normalize(md)
}

// Normalize collapses runs of three or more newlines into one blank line and
// removes URLs. Normalize is idempotent.
func Normalize(md string) string {
	md = blankRuns.ReplaceAllString(md, "\n\n")
	return urlPattern.ReplaceAllString(md, "")
}
