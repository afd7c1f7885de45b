// Package readability implements schemex.Extractor on top of
// github.com/go-shiori/go-readability.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/schemex"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements schemex.Extractor at compile time.
var _ schemex.Extractor = (*Extractor)(nil)

// Extractor applies Mozilla's Readability algorithm.
type Extractor struct {
	pageURL *url.URL
}

// NewExtractor creates a new Extractor. The optional page URL is used to
// resolve relative links in the extracted content.
func NewExtractor(pageURL *url.URL) *Extractor {
	return &Extractor{pageURL: pageURL}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*schemex.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, schemex.Errorf(schemex.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), e.pageURL)
	if err != nil {
		return nil, err
	}

	return &schemex.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
