package reduce_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/fwojciec/schemex"
	"github.com/fwojciec/schemex/goquery"
	"github.com/fwojciec/schemex/htmltomarkdown"
	"github.com/fwojciec/schemex/mock"
	"github.com/fwojciec/schemex/reduce"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses blank runs", "a\n\n\n\nb", "a\n\nb"},
		{"keeps single blank line", "a\n\nb", "a\n\nb"},
		{"removes https URL", "see https://example.gov.in/schemes/abc now", "see  now"},
		{"removes URL through closing punctuation", "[portal](http://pmkisan.gov.in) next", "[portal]( next"},
		{"leaves plain text", "Eligibility: farmers", "Eligibility: farmers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, reduce.Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	in := "# Scheme\n\n\n\nVisit https://a.gov.in/x?y=1 or [b](https://b.gov.in).\n\n\n\n\nEnd"
	once := reduce.Normalize(in)

	assert.Equal(t, once, reduce.Normalize(once))
	assert.NotContains(t, once, "\n\n\n")
	assert.NotContains(t, once, "https://")
}

func TestReducer_Reduce(t *testing.T) {
	t.Parallel()

	t.Run("reduces page to normalized markdown", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<nav>Menu</nav>
<main><h1>PM-KISAN</h1><p>Details at <a href="https://pmkisan.gov.in">portal</a>.</p><img src="https://x.gov.in/a.png"></main>
<footer>Footer links</footer>
</body></html>`

		r := reduce.NewReducer(goquery.NewExtractor(), htmltomarkdown.NewConverter(), nil)
		got := r.Reduce(html)

		assert.Contains(t, got, "# PM-KISAN")
		assert.Contains(t, got, "[portal](")
		assert.NotContains(t, got, "Footer links")
		assert.NotContains(t, got, "Menu")
		assert.NotContains(t, got, "http")
		assert.NotContains(t, got, "\n\n\n")
	})

	t.Run("returns empty for empty html", func(t *testing.T) {
		t.Parallel()

		r := reduce.NewReducer(goquery.NewExtractor(), htmltomarkdown.NewConverter(), nil)

		assert.Empty(t, r.Reduce(""))
		assert.Empty(t, r.Reduce("   \n"))
	})

	t.Run("logs and returns empty on extractor failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		ext := &mock.Extractor{
			ExtractFn: func(string) (*schemex.ExtractResult, error) {
				return nil, errors.New("parse failure")
			},
		}

		r := reduce.NewReducer(ext, htmltomarkdown.NewConverter(), logger)

		assert.Empty(t, r.Reduce("<html></html>"))
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "parse failure")
	})

	t.Run("logs and returns empty on converter failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		conv := &mock.Converter{
			ConvertFn: func(string) (string, error) {
				return "", errors.New("conversion failure")
			},
		}

		r := reduce.NewReducer(goquery.NewExtractor(), conv, logger)

		assert.Empty(t, r.Reduce("<main>text</main>"))
		assert.True(t, strings.Contains(buf.String(), "conversion failure"))
	})
}
