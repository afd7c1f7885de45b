package schemex

// ExtractResult holds the main content region of an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as HTML.
	// Boilerplate (scripts, navigation, footer) has been removed.
	ContentHTML string
}

// Extractor selects the main content of an HTML page, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	Extract(html string) (*ExtractResult, error)
}

// Reducer turns rendered HTML into normalized text suitable for
// language-model input.
type Reducer interface {
	// Reduce returns the normalized text for html.
	// It never fails: an empty string means nothing usable was found.
	Reduce(html string) string
}
