package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/schemex"
	"github.com/fwojciec/schemex/gemini"
	schemexhttp "github.com/fwojciec/schemex/http"
	"github.com/fwojciec/schemex/rod"
	schemexslog "github.com/fwojciec/schemex/slog"
	"github.com/fwojciec/schemex/sqlite"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	m := NewMain()
	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database used by the result store.
	DB *sqlite.DB

	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Getenv: os.Getenv}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Getenv: m.Getenv,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("schemex"),
		kong.Description("Extract structured scheme records from web pages."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
		kong.Vars{"default_model": gemini.DefaultModel},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'schemex --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger, closer := schemexslog.NewLogger(schemexslog.Options{
		Level:   cli.LogLevel,
		File:    cli.LogFile,
		Console: stderr,
	})
	defer closer.Close()
	deps.Logger = logger

	if cmd == "run" || cmd == "records" {
		dbPath := cli.DB
		if dbPath == "" {
			dbPath = defaultDBPath()
		}
		m.DB = sqlite.NewDB(dbPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintln(stderr, "Hint: Set SCHEMEX_DB to use a different database path")
			return fmt.Errorf("failed to open database at %q: %w", dbPath, err)
		}
		defer m.Close()
		deps.Results = sqlite.NewResultService(m.DB)
	}

	deps.Sitemaps = schemexslog.NewLoggingSitemapService(schemexhttp.NewSitemapService(nil), logger)
	deps.NewFetcher = newFetcher(logger)
	deps.NewCompleter = newCompleter
	deps.NewTokenCounter = func() (schemex.TokenCounter, error) {
		return gemini.NewTokenCounter(tokenizerModel)
	}

	return kongCtx.Run(deps)
}

// tokenizerModel is used for local token counting; the tokenizer supports
// fewer models than the API.
const tokenizerModel = "gemini-2.5-flash"

// newFetcher returns the fetcher factory for the real backends.
func newFetcher(logger *slog.Logger) FetcherFactory {
	return func(backend string, timeout time.Duration) (schemex.Fetcher, error) {
		switch backend {
		case backendHTTP:
			return schemexhttp.NewFetcher(schemexhttp.WithTimeout(timeout)), nil
		default:
			f, err := rod.NewFetcher(rod.WithFetchTimeout(timeout), rod.WithLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
			}
			return f, nil
		}
	}
}

func newCompleter(ctx context.Context, apiKey, model string) (schemex.Completer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Gemini API (check GEMINI_API_KEY): %w", err)
	}
	return gemini.NewCompleter(client, gemini.WithModel(model)), nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "schemex.db"
	}
	dir := filepath.Join(home, ".schemex")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "schemex.db")
}
