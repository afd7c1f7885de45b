// Package trafilatura implements schemex.Extractor on top of
// github.com/markusmobius/go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/schemex"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements schemex.Extractor at compile time.
var _ schemex.Extractor = (*Extractor)(nil)

// Extractor uses trafilatura's scoring heuristics to find the main content.
// Tables and links are kept since scheme pages often list benefits and
// eligibility in tabular form.
type Extractor struct {
	opts trafilatura.Options
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		opts: trafilatura.Options{
			EnableFallback:  true,
			ExcludeComments: true,
			IncludeLinks:    true,
		},
	}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*schemex.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, schemex.Errorf(schemex.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), e.opts)
	if err != nil {
		return nil, err
	}

	out := &schemex.ExtractResult{Title: result.Metadata.Title}
	if result.ContentNode != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return nil, err
		}
		out.ContentHTML = buf.String()
	}
	return out, nil
}
