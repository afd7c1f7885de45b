package main_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/schemex"
	main "github.com/fwojciec/schemex/cmd/schemex"
	"github.com/fwojciec/schemex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints reduced markdown", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := testDeps(t)
		var backend string
		var closed bool
		deps.NewFetcher = func(b string, _ time.Duration) (schemex.Fetcher, error) {
			backend = b
			return pageFetcher(&closed)(b, 0)
		}

		err := (&main.ReduceCmd{URL: "https://a.gov.in/pm-kisan", Backend: "http", Extractor: "goquery"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "http", backend)
		assert.True(t, closed)
		assert.Contains(t, stdout.String(), "# PM Kisan")
		assert.Contains(t, stdout.String(), "Income support")
		assert.NotContains(t, stdout.String(), "Copyright")
	})

	t.Run("reports fetch failure", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(t)
		deps.NewFetcher = func(string, time.Duration) (schemex.Fetcher, error) {
			return &mock.Fetcher{
				FetchFn: func(context.Context, string) (string, error) { return "", errors.New("dns failure") },
				CloseFn: func() error { return nil },
			}, nil
		}

		err := (&main.ReduceCmd{URL: "https://a.gov.in/x"}).Run(deps)

		require.Error(t, err)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "error:")
	})

	t.Run("reports page without text", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := testDeps(t)
		deps.NewFetcher = func(string, time.Duration) (schemex.Fetcher, error) {
			return &mock.Fetcher{
				FetchFn: func(context.Context, string) (string, error) { return "<html><body><script>x()</script></body></html>", nil },
				CloseFn: func() error { return nil },
			}, nil
		}

		err := (&main.ReduceCmd{URL: "https://a.gov.in/x", Extractor: "goquery"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, schemex.ENOTFOUND, schemex.ErrorCode(err))
		assert.Contains(t, stderr.String(), "no text found")
	})
}
