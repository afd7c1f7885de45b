// Package goquery selects the main content region of scheme pages using
// github.com/PuerkitoBio/goquery.
package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/schemex"
)

// Ensure Extractor implements schemex.Extractor at compile time.
var _ schemex.Extractor = (*Extractor)(nil)

// contentPattern matches id and class names that usually mark the content region.
var contentPattern = regexp.MustCompile(`(?i)content|main`)

// boilerplateSelector lists elements stripped when no content region is found.
const boilerplateSelector = "script, style, nav, footer"

// Extractor picks the main content region of a page.
//
// Candidates are tried in order: the first <main> element, the first element
// whose id matches /content|main/i, then the first element with a class name
// matching the same pattern. A selected region is returned unmodified. When
// nothing matches, scripts, styles, navigation and footers are removed from
// the whole document and the remainder is returned.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the main content of html.
func (e *Extractor) Extract(html string) (*schemex.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, schemex.Errorf(schemex.EINVALID, "failed to parse HTML: %v", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	if region := contentRegion(doc); region != nil {
		content, err := goquery.OuterHtml(region)
		if err != nil {
			return nil, schemex.Errorf(schemex.EINTERNAL, "failed to render content: %v", err)
		}
		return &schemex.ExtractResult{Title: title, ContentHTML: content}, nil
	}

	doc.Find(boilerplateSelector).Remove()
	content, err := doc.Html()
	if err != nil {
		return nil, schemex.Errorf(schemex.EINTERNAL, "failed to render document: %v", err)
	}
	return &schemex.ExtractResult{Title: title, ContentHTML: content}, nil
}

// contentRegion returns the content region of doc, or nil if none is marked.
func contentRegion(doc *goquery.Document) *goquery.Selection {
	if main := doc.Find("main").First(); main.Length() > 0 {
		return main
	}

	byID := doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return contentPattern.MatchString(s.AttrOr("id", ""))
	}).First()
	if byID.Length() > 0 {
		return byID
	}

	byClass := doc.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, class := range strings.Fields(s.AttrOr("class", "")) {
			if contentPattern.MatchString(class) {
				return true
			}
		}
		return false
	}).First()
	if byClass.Length() > 0 {
		return byClass
	}

	return nil
}
