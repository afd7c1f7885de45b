package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/schemex"
)

// Fetch backends.
const (
	backendRod  = "rod"
	backendHTTP = "http"
)

// FetcherFactory creates the page fetcher for a backend.
type FetcherFactory func(backend string, timeout time.Duration) (schemex.Fetcher, error)

// CompleterFactory creates the language-model client.
type CompleterFactory func(ctx context.Context, apiKey, model string) (schemex.Completer, error)

// Dependencies holds all services and configuration for command execution.
// Expensive services are created through factories so that commands can
// reject bad configuration before launching a browser or dialing the API.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Getenv   func(string) string
	Results  schemex.ResultStore
	Sitemaps schemex.SitemapService

	NewFetcher      FetcherFactory
	NewCompleter    CompleterFactory
	NewTokenCounter func() (schemex.TokenCounter, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	LogLevel string `name:"log-level" default:"info" env:"LOG_LEVEL" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFile  string `name:"log-file" default:"schemex.log" help:"Rotating log file; empty disables file logging"`
	DB       string `name:"db" env:"SCHEMEX_DB" help:"Result database path (default ~/.schemex/schemex.db)"`

	Run     RunCmd     `cmd:"" help:"Extract one record per target page"`
	Reduce  ReduceCmd  `cmd:"" help:"Fetch a page and print its reduced text"`
	Records RecordsCmd `cmd:"" help:"List stored records as JSON lines"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	URLs          []string      `arg:"" optional:"" name:"url" help:"Target URLs"`
	URLsFile      string        `name:"urls-file" help:"File with one target URL per line"`
	Sitemap       string        `help:"Discover targets from this site's sitemap"`
	Filter        []string      `short:"F" name:"filter" help:"Keep sitemap URLs matching regex (repeatable)"`
	Config        string        `short:"c" help:"YAML configuration file"`
	Fields        []string      `short:"f" name:"field" help:"Field to extract (repeatable; default scheme fields)"`
	Out           string        `short:"o" help:"Output directory (default output)"`
	Backend       string        `default:"rod" enum:"rod,http" help:"Fetch backend (rod, http)"`
	Extractor     string        `default:"goquery" enum:"goquery,trafilatura,readability" help:"Main-content extractor"`
	Concurrency   int           `short:"n" help:"Concurrent workers (default 1)"`
	Timeout       time.Duration `default:"30s" help:"Page load timeout"`
	Model         string        `help:"Gemini model (default ${default_model})"`
	Resume        bool          `help:"Reuse stored records for unchanged pages"`
	FetchAttempts int           `name:"fetch-attempts" default:"1" help:"Fetch attempts per target"`
	RateLimit     float64       `name:"rate-limit" default:"1" help:"Requests per second per host when concurrent"`
}

// ReduceCmd is the "reduce" subcommand.
type ReduceCmd struct {
	URL       string        `arg:"" help:"Page URL"`
	Backend   string        `default:"rod" enum:"rod,http" help:"Fetch backend (rod, http)"`
	Extractor string        `default:"goquery" enum:"goquery,trafilatura,readability" help:"Main-content extractor"`
	Timeout   time.Duration `default:"30s" help:"Page load timeout"`
}

// RecordsCmd is the "records" subcommand.
type RecordsCmd struct {
	Batch  string `help:"Only records from this batch timestamp"`
	Limit  int    `help:"Maximum number of records"`
	Offset int    `help:"Number of records to skip"`
}
