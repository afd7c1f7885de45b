package trafilatura_test

import (
	"testing"

	"github.com/fwojciec/schemex"
	"github.com/fwojciec/schemex/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ schemex.Extractor = (*trafilatura.Extractor)(nil)

const schemePage = `<!DOCTYPE html>
<html>
<head>
<title>Pradhan Mantri Kisan Samman Nidhi | Portal</title>
<meta property="og:title" content="PM-KISAN">
</head>
<body>
<nav><a href="/">Home</a><a href="/schemes">All Schemes</a></nav>
<article>
<h1>Pradhan Mantri Kisan Samman Nidhi</h1>
<p>The scheme provides income support of six thousand rupees per year to all landholding farmer families across the country, paid in three equal instalments.</p>
<h2>Eligibility</h2>
<p>All landholding farmer families with cultivable land in their names are eligible, subject to the exclusion criteria published by the Ministry of Agriculture.</p>
<h2>Application Process</h2>
<p>Farmers can register through the official portal or through Common Service Centres by submitting land records and Aadhaar details.</p>
</article>
<footer>Copyright Government Portal</footer>
</body>
</html>`

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(schemePage)

		require.NoError(t, err)
		assert.NotEmpty(t, result.Title)
	})

	t.Run("extracts main content", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(schemePage)

		require.NoError(t, err)
		assert.Contains(t, result.ContentHTML, "income support")
		assert.Contains(t, result.ContentHTML, "Common Service Centres")
	})

	t.Run("removes footer boilerplate", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(schemePage)

		require.NoError(t, err)
		assert.NotContains(t, result.ContentHTML, "Copyright Government Portal")
	})

	t.Run("returns error for empty input", func(t *testing.T) {
		t.Parallel()

		_, err := trafilatura.NewExtractor().Extract("  ")

		require.Error(t, err)
		assert.Equal(t, schemex.EINVALID, schemex.ErrorCode(err))
	})
}
