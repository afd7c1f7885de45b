package fs_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/schemex"
	"github.com/fwojciec/schemex/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batch = "20250115_093000"

var schema = schemex.Schema{"Scheme Name", "Tags"}

func record(name string, tags any, url string) *schemex.Record {
	r := schemex.NewRecord()
	r.Set("Scheme Name", name)
	r.Set("Tags", tags)
	r.Set(schemex.URLField, url)
	return r
}

func TestLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		prefix string
	}{
		{"host and path", "https://www.example.gov.in/schemes/abc", "www_example_gov_in_schemes_abc_"},
		{"trailing slash", "https://www.example.gov.in/schemes/", "www_example_gov_in_schemes_"},
		{"host only", "https://pmkisan.gov.in", "pmkisan_gov_in_"},
		{"port and dashes", "http://localhost:8080/pm-kisan", "localhost_8080_pm_kisan_"},
		{"not a url", "scheme list", "scheme_list_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := fs.Label(tt.source)
			assert.Regexp(t, "^"+tt.prefix+"[0-9a-f]{16}$", got)
			assert.Equal(t, got, fs.Label(tt.source))
		})
	}

	t.Run("combined", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "combined", fs.Label(schemex.CombinedSource))
	})
}

func TestLabel_DistinctSources(t *testing.T) {
	t.Parallel()

	sources := []string{
		"https://www.myscheme.gov.in/schemes/mvpy-bihar",
		"https://www.myscheme.gov.in/schemes/mvpy_bihar",
		"http://www.myscheme.gov.in/schemes/mvpy-bihar/",
		"https://www.myscheme.gov.in/schemes/mvpy-bihar/",
		"https://www.myscheme.gov.in/schemes/mvpy.bihar",
		"https://www.myscheme.gov.in/schemes/mvpy/bihar",
		"https://www.myscheme.gov.in/schemes/mvpy-bihar?lang=hi",
		"https://www.myscheme.gov.in/schemes/mvpy-bihar?lang=en",
	}

	seen := map[string]string{}
	for _, src := range sources {
		label := fs.Label(src)
		if prev, ok := seen[label]; ok {
			t.Fatalf("%q and %q share label %q", prev, src, label)
		}
		seen[label] = src
	}
}

func TestLabel_BoundsLength(t *testing.T) {
	t.Parallel()

	got := fs.Label("https://example.gov.in/" + strings.Repeat("segment/", 40))

	assert.LessOrEqual(t, len(got), 117)
}

func TestOutputStore_SaveResult_DistinctFilesForSimilarTargets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := fs.NewOutputStore(dir)
	a := "https://www.myscheme.gov.in/schemes/mvpy-bihar"
	b := "https://www.myscheme.gov.in/schemes/mvpy_bihar"

	require.NoError(t, store.SaveResult(context.Background(), batch, a, schema, []*schemex.Record{record("A", nil, a)}))
	require.NoError(t, store.SaveResult(context.Background(), batch, b, schema, []*schemex.Record{record("B", nil, b)}))

	files, err := filepath.Glob(filepath.Join(dir, "data_"+batch+"_www_myscheme_gov_in_schemes_mvpy_bihar_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestOutputStore_SaveRaw(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "output")
	store := fs.NewOutputStore(dir)

	err := store.SaveRaw(context.Background(), batch, 2, "# PM-KISAN\n\nIncome support")

	require.NoError(t, err)
	content, err := os.ReadFile(filepath.Join(dir, "raw_20250115_093000_2.md"))
	require.NoError(t, err)
	assert.Equal(t, "# PM-KISAN\n\nIncome support", string(content))
}

func TestOutputStore_SaveResult(t *testing.T) {
	t.Parallel()

	t.Run("writes json and csv", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store := fs.NewOutputStore(dir)
		url := "https://www.example.gov.in/schemes/abc"
		records := []*schemex.Record{record("PM-KISAN", nil, url)}

		err := store.SaveResult(context.Background(), batch, url, schema, records)
		require.NoError(t, err)

		base := filepath.Join(dir, "data_20250115_093000_"+fs.Label(url))
		raw, err := os.ReadFile(base + ".json")
		require.NoError(t, err)
		assert.Contains(t, string(raw), "\n    \"listings\": [\n")

		var decoded struct {
			Listings []map[string]any `json:"listings"`
		}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.Len(t, decoded.Listings, 1)
		assert.Equal(t, "PM-KISAN", decoded.Listings[0]["Scheme Name"])
		assert.Nil(t, decoded.Listings[0]["Tags"])
		assert.Equal(t, url, decoded.Listings[0]["URL"])

		f, err := os.Open(base + ".csv")
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"Scheme Name", "Tags", "URL"},
			{"PM-KISAN", "", url},
		}, rows)
	})

	t.Run("zero records writes json only", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store := fs.NewOutputStore(dir)

		err := store.SaveResult(context.Background(), batch, schemex.CombinedSource, schema, nil)
		require.NoError(t, err)

		raw, err := os.ReadFile(filepath.Join(dir, "data_20250115_093000_combined.json"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"listings": []}`, string(raw))
		_, err = os.Stat(filepath.Join(dir, "data_20250115_093000_combined.csv"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("leaves no temporary files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store := fs.NewOutputStore(dir)

		require.NoError(t, store.SaveResult(context.Background(), batch, schemex.CombinedSource, schema,
			[]*schemex.Record{record("A", "x", "u")}))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), e.Name())
		}
		assert.Len(t, entries, 2)
	})
}

func TestEncodeCSV_FormatsNonStringValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rec := record("A", []any{"farm", "income"}, "u")

	require.NoError(t, fs.EncodeCSV(&buf, schema, []*schemex.Record{rec}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `["farm","income"]`, rows[1][1])
}

func TestEncodeJSON_PreservesFieldOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, fs.EncodeJSON(&buf, []*schemex.Record{record("A", "x", "u")}))

	out := buf.String()
	assert.Less(t, strings.Index(out, "Scheme Name"), strings.Index(out, "Tags"))
	assert.Less(t, strings.Index(out, "Tags"), strings.Index(out, `"URL"`))
}
