package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/schemex"
)

// Ensure LoggingCompleter implements schemex.Completer.
var _ schemex.Completer = (*LoggingCompleter)(nil)

// LoggingCompleter wraps a Completer with logging. Prompt and response
// bodies are logged at debug level only.
type LoggingCompleter struct {
	next   schemex.Completer
	logger *slog.Logger
}

// NewLoggingCompleter creates a new LoggingCompleter.
func NewLoggingCompleter(next schemex.Completer, logger *slog.Logger) *LoggingCompleter {
	return &LoggingCompleter{next: next, logger: logger}
}

// Complete delegates to the wrapped completer and logs the outcome.
func (c *LoggingCompleter) Complete(ctx context.Context, req *schemex.CompletionRequest) (out string, err error) {
	defer func(begin time.Time) {
		c.logger.Info("completion",
			"prompt_chars", len(req.UserMessage),
			"response_chars", len(out),
			"duration", time.Since(begin),
			"err", err,
		)
		c.logger.Debug("completion response", "response", out)
	}(time.Now())
	return c.next.Complete(ctx, req)
}
