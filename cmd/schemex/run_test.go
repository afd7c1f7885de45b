package main_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/schemex"
	main "github.com/fwojciec/schemex/cmd/schemex"
	"github.com/fwojciec/schemex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemePage = `<html><head><title>PM Kisan</title></head><body>
<nav>Home | Schemes</nav>
<main><h1>PM Kisan</h1><p>Income support of 6000 rupees per year.</p></main>
<footer>Copyright</footer>
</body></html>`

// testDeps returns dependencies whose factories fail the test if called.
func testDeps(t *testing.T) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: stderr,
		Logger: slog.New(slog.DiscardHandler),
		Getenv: func(key string) string {
			if key == "GEMINI_API_KEY" {
				return "test-key"
			}
			return ""
		},
		NewFetcher: func(string, time.Duration) (schemex.Fetcher, error) {
			t.Error("fetcher must not be created")
			return nil, errors.New("unexpected")
		},
		NewCompleter: func(context.Context, string, string) (schemex.Completer, error) {
			t.Error("completer must not be created")
			return nil, errors.New("unexpected")
		},
	}, stdout, stderr
}

func pageFetcher(closed *bool) main.FetcherFactory {
	return func(string, time.Duration) (schemex.Fetcher, error) {
		return &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) { return schemePage, nil },
			CloseFn: func() error {
				*closed = true
				return nil
			},
		}, nil
	}
}

func TestRunCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("extracts and writes output files", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		deps, stdout, _ := testDeps(t)

		var closed bool
		var prompt string
		var model string
		deps.NewFetcher = pageFetcher(&closed)
		deps.NewCompleter = func(_ context.Context, apiKey, m string) (schemex.Completer, error) {
			assert.Equal(t, "test-key", apiKey)
			model = m
			return &mock.Completer{
				CompleteFn: func(_ context.Context, req *schemex.CompletionRequest) (string, error) {
					prompt = req.UserMessage
					return `{"listings":[{"Scheme Name":"PM Kisan","Tags":null}]}`, nil
				},
			}, nil
		}
		var upserted *schemex.StoredResult
		deps.Results = &mock.ResultStore{
			UpsertResultFn: func(_ context.Context, r *schemex.StoredResult) error {
				upserted = r
				return nil
			},
		}

		cmd := &main.RunCmd{
			URLs:      []string{"https://www.myscheme.gov.in/schemes/pm-kisan"},
			Fields:    []string{"Scheme Name", "Tags"},
			Out:       out,
			Backend:   "rod",
			Extractor: "goquery",
			Model:     "gemini-test",
		}

		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.True(t, closed, "fetcher is closed")
		assert.Equal(t, "gemini-test", model)
		assert.Contains(t, prompt, "Income support")
		assert.NotContains(t, prompt, "Copyright", "footer is reduced away")
		assert.Contains(t, stdout.String(), "1 records from 1 targets")

		combined, err := filepath.Glob(filepath.Join(out, "data_*_combined.json"))
		require.NoError(t, err)
		require.Len(t, combined, 1)
		data, err := os.ReadFile(combined[0])
		require.NoError(t, err)
		assert.Contains(t, string(data), `"URL": "https://www.myscheme.gov.in/schemes/pm-kisan"`)

		raw, err := filepath.Glob(filepath.Join(out, "raw_*_0.md"))
		require.NoError(t, err)
		assert.Len(t, raw, 1)

		require.NotNil(t, upserted)
		assert.Equal(t, "PM Kisan", upserted.Record.Text("Scheme Name"))
	})

	t.Run("reports missing API key before creating services", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps(t)
		deps.Getenv = func(string) string { return "" }

		err := (&main.RunCmd{URLs: []string{"https://a.gov.in/1"}}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, schemex.EINVALID, schemex.ErrorCode(err))
		assert.Contains(t, stderr.String(), "GEMINI_API_KEY")
	})

	t.Run("reports missing targets", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps(t)

		err := (&main.RunCmd{}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "no target URLs")
	})

	t.Run("reports invalid fields", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps(t)

		err := (&main.RunCmd{URLs: []string{"https://a.gov.in/1"}, Fields: []string{"Name", "Name"}}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "duplicate schema field")
	})

	t.Run("reports invalid filter", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps(t)

		err := (&main.RunCmd{Sitemap: "https://a.gov.in", Filter: []string{"[unclosed"}}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "invalid filter pattern")
	})

	t.Run("reads targets and fields from files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		urlsFile := filepath.Join(dir, "urls.txt")
		require.NoError(t, os.WriteFile(urlsFile, []byte("https://a.gov.in/1\n"), 0o644))
		configFile := filepath.Join(dir, "schemex.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("fields: [Title]\noutput: "+filepath.Join(dir, "out")+"\n"), 0o644))

		deps, stdout, _ := testDeps(t)
		var closed bool
		var fields string
		deps.NewFetcher = pageFetcher(&closed)
		deps.NewCompleter = func(context.Context, string, string) (schemex.Completer, error) {
			return &mock.Completer{
				CompleteFn: func(_ context.Context, req *schemex.CompletionRequest) (string, error) {
					fields = req.UserMessage
					return `{"Title":"PM Kisan"}`, nil
				},
			}, nil
		}
		deps.Results = &mock.ResultStore{
			UpsertResultFn: func(context.Context, *schemex.StoredResult) error { return nil },
		}

		err := (&main.RunCmd{URLsFile: urlsFile, Config: configFile, Backend: "http", Extractor: "goquery"}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, fields, "Fields: Title\n")
		assert.Contains(t, stdout.String(), "Output: "+filepath.Join(dir, "out"))
		assert.FileExists(t, filepath.Join(dir, "out", "data_"+batchOf(t, stdout.String())+"_combined.csv"))
	})

	t.Run("discovers targets from sitemap", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)
		var gotFilter *schemex.URLFilter
		deps.Sitemaps = &mock.SitemapService{
			DiscoverURLsFn: func(_ context.Context, baseURL string, filter *schemex.URLFilter) ([]string, error) {
				gotFilter = filter
				return []string{"https://a.gov.in/schemes/1"}, nil
			},
		}
		var closed bool
		deps.NewFetcher = pageFetcher(&closed)
		deps.NewCompleter = func(context.Context, string, string) (schemex.Completer, error) {
			return &mock.Completer{
				CompleteFn: func(context.Context, *schemex.CompletionRequest) (string, error) {
					return `{"listings":[]}`, nil
				},
			}, nil
		}

		err := (&main.RunCmd{
			Sitemap:   "https://a.gov.in",
			Filter:    []string{"/schemes/"},
			Out:       t.TempDir(),
			Extractor: "goquery",
		}).Run(deps)

		require.NoError(t, err)
		require.NotNil(t, gotFilter)
		assert.Len(t, gotFilter.Include, 1)
		assert.Contains(t, stdout.String(), "Found 1 URLs in sitemap")
		assert.Contains(t, stdout.String(), "0 records from 1 targets (0 reused, 1 skipped, 0 failed)")
	})
}

// batchOf extracts the batch timestamp from the run summary.
func batchOf(t *testing.T, summary string) string {
	t.Helper()
	var batch string
	for _, line := range bytes.Split([]byte(summary), []byte("\n")) {
		if bytes.HasPrefix(line, []byte("Batch ")) {
			batch = string(bytes.TrimSuffix(bytes.Fields(line)[1], []byte(":")))
		}
	}
	require.NotEmpty(t, batch)
	return batch
}
