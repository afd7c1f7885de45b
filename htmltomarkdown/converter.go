// Package htmltomarkdown implements schemex.Converter on top of
// github.com/JohannesKaufmann/html-to-markdown/v2.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/schemex"
)

// Ensure Converter implements schemex.Converter at compile time.
var _ schemex.Converter = (*Converter)(nil)

// mediaSelector lists elements dropped before conversion. Images carry no
// text the language model can use.
const mediaSelector = "img, picture, svg"

// Converter renders HTML as Markdown. Links are kept as Markdown links,
// images are dropped and lines are never wrapped.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", schemex.Errorf(schemex.EINVALID, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", schemex.Errorf(schemex.EINVALID, "failed to parse HTML: %v", err)
	}
	doc.Find(mediaSelector).Remove()

	stripped, err := doc.Html()
	if err != nil {
		return "", err
	}

	return c.conv.ConvertString(stripped)
}
