package crawl_test

import (
	"testing"

	"github.com/fwojciec/schemex/crawl"
	"github.com/stretchr/testify/assert"
)

func TestTruncateURL(t *testing.T) {
	t.Parallel()

	t.Run("returns URL unchanged when shorter than max", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "https://x.in", crawl.TruncateURL("https://x.in", 50))
	})

	t.Run("truncates with ellipsis when longer than max", func(t *testing.T) {
		t.Parallel()
		url := "https://www.myscheme.gov.in/schemes/pm-kisan/eligibility-rules"
		result := crawl.TruncateURL(url, 20)
		assert.Equal(t, "...eligibility-rules", result)
		assert.Len(t, result, 20)
	})

	t.Run("returns URL unchanged when exactly max length", func(t *testing.T) {
		t.Parallel()
		url := "https://www.gov.in"
		assert.Equal(t, url, crawl.TruncateURL(url, len(url)))
	})

	t.Run("returns empty string when maxLen is zero", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, crawl.TruncateURL("https://www.gov.in", 0))
	})

	t.Run("returns empty string when maxLen is negative", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, crawl.TruncateURL("https://www.gov.in", -1))
	})

	t.Run("returns prefix of URL when maxLen is very small", func(t *testing.T) {
		t.Parallel()
		// When maxLen < 4, we can't fit "..." prefix, so return URL prefix
		assert.Equal(t, "htt", crawl.TruncateURL("https://www.gov.in", 3))
		assert.Equal(t, "ht", crawl.TruncateURL("https://www.gov.in", 2))
		assert.Equal(t, "h", crawl.TruncateURL("https://www.gov.in", 1))
	})

	t.Run("handles short URL with small maxLen", func(t *testing.T) {
		t.Parallel()
		// URL shorter than maxLen should return unchanged
		assert.Equal(t, "ab", crawl.TruncateURL("ab", 3))
		assert.Equal(t, "a", crawl.TruncateURL("a", 2))
	})
}

func TestFormatProgress(t *testing.T) {
	t.Parallel()

	t.Run("formats completed target", func(t *testing.T) {
		t.Parallel()
		ev := crawl.ProgressEvent{Type: crawl.ProgressCompleted, Completed: 2, Total: 10, URL: "https://a.gov.in/x"}
		assert.Equal(t, "[2/10] ok   https://a.gov.in/x", crawl.FormatProgress(ev, 60))
	})

	t.Run("formats failed target", func(t *testing.T) {
		t.Parallel()
		ev := crawl.ProgressEvent{Type: crawl.ProgressFailed, Completed: 3, Total: 10, URL: "https://a.gov.in/x"}
		assert.Equal(t, "[3/10] fail https://a.gov.in/x", crawl.FormatProgress(ev, 60))
	})

	t.Run("truncates long URLs", func(t *testing.T) {
		t.Parallel()
		ev := crawl.ProgressEvent{Type: crawl.ProgressCompleted, Completed: 1, Total: 1, URL: "https://www.myscheme.gov.in/schemes/abc"}
		assert.Equal(t, "[1/1] ok   ...schemes/abc", crawl.FormatProgress(ev, 14))
	})

	t.Run("ignores batch-level events", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, crawl.FormatProgress(crawl.ProgressEvent{Type: crawl.ProgressStarted, Total: 3}, 60))
		assert.Empty(t, crawl.FormatProgress(crawl.ProgressEvent{Type: crawl.ProgressFinished, Total: 3}, 60))
	})
}
